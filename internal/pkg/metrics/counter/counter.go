package counter

import (
	"context"
	"strconv"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/cache"
)

const (
	webhookReceivedKey  = "billing:counters:webhook:received"
	webhookDuplicateKey = "billing:counters:webhook:duplicate"
	webhookFailedKey    = "billing:counters:webhook:failed"
)

// AddWebhookReceived increments the received counter for an event type in Redis
func AddWebhookReceived(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookReceivedKey, eventType, 1).Err()
}

// AddWebhookDuplicate increments the duplicate-delivery counter for an event type in Redis
func AddWebhookDuplicate(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookDuplicateKey, eventType, 1).Err()
}

// AddWebhookFailed increments the processing-failure counter for an event type in Redis
func AddWebhookFailed(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookFailedKey, eventType, 1).Err()
}

// WebhookSnapshot holds the per-event-type counter values for one outcome.
type WebhookSnapshot struct {
	Received  map[string]int64 `json:"received"`
	Duplicate map[string]int64 `json:"duplicate"`
	Failed    map[string]int64 `json:"failed"`
}

// SnapshotWebhooks reads all webhook counters from Redis. Missing keys
// yield empty maps, not errors.
func SnapshotWebhooks() (WebhookSnapshot, error) {
	snap := WebhookSnapshot{}

	var err error
	if snap.Received, err = readHash(webhookReceivedKey); err != nil {
		return snap, err
	}
	if snap.Duplicate, err = readHash(webhookDuplicateKey); err != nil {
		return snap, err
	}
	if snap.Failed, err = readHash(webhookFailedKey); err != nil {
		return snap, err
	}
	return snap, nil
}

func readHash(key string) (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for field, raw := range data {
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
