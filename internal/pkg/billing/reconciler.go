package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
)

// SubscriptionFetcher resolves the price ref of a provider subscription.
// Checkout-completed events carry only the subscription id, so the plan has
// to be looked up at the provider.
type SubscriptionFetcher interface {
	SubscriptionPriceRef(ctx context.Context, subscriptionID string) (string, error)
}

// PlanCache receives the effective plan after every applied transition so
// externally cached plan state never lags a reconciled store.
type PlanCache interface {
	SetPlan(storeID, plan string) error
}

// HandlerFunc applies one event kind to the store state.
type HandlerFunc func(ctx context.Context, evt Event) error

// Reconciler translates Stripe subscription events into store-record state
// changes. Transitions are idempotent sets, safe under at-least-once
// delivery. Duplicate or retried deliveries of *different* events for the
// same store are applied in arrival order; the reconciler does not attempt
// causal reordering.
type Reconciler struct {
	repo     Repository
	plans    *PlanResolver
	subs     SubscriptionFetcher
	cache    PlanCache
	log      zerolog.Logger
	handlers map[string]HandlerFunc
}

// NewReconciler wires a reconciler from explicit dependencies. cache may be
// nil when no external plan cache is configured.
func NewReconciler(repo Repository, plans *PlanResolver, subs SubscriptionFetcher, cache PlanCache, log zerolog.Logger) *Reconciler {
	r := &Reconciler{
		repo:  repo,
		plans: plans,
		subs:  subs,
		cache: cache,
		log:   log,
	}
	r.handlers = map[string]HandlerFunc{
		EventCheckoutCompleted:   r.handleCheckoutCompleted,
		EventSubscriptionUpdated: r.handleSubscriptionUpdated,
		EventSubscriptionDeleted: r.handleSubscriptionDeleted,
	}
	return r
}

// Process routes one verified event to its handler. Unhandled event kinds
// are acknowledged and ignored. A non-nil error means the delivery should be
// retried by the provider.
func (r *Reconciler) Process(ctx context.Context, evt Event) error {
	h, ok := r.handlers[evt.Type]
	if !ok {
		r.log.Info().Str("event_type", evt.Type).Msg("ignoring unhandled event type")
		return nil
	}
	return h(ctx, evt)
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, evt Event) error {
	var cs checkoutSession
	if err := json.Unmarshal(evt.Payload, &cs); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	storeID := strings.TrimSpace(cs.Metadata["storeId"])
	if storeID == "" {
		// The session was created without our metadata; nothing to update.
		r.log.Warn().Str("event_id", evt.ID).Msg("checkout session without storeId metadata")
		return nil
	}
	if cs.Subscription == "" {
		r.log.Warn().Str("event_id", evt.ID).Str("store_id", storeID).Msg("checkout session without subscription ref")
		return nil
	}

	priceRef, err := r.subs.SubscriptionPriceRef(ctx, cs.Subscription)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", cs.Subscription, err)
	}
	plan := r.plans.Resolve(priceRef)

	if err := r.repo.ActivateStoreSubscription(storeID, plan, cs.Customer, cs.Subscription); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn().Str("store_id", storeID).Msg("store not found for checkout session")
			return nil
		}
		return fmt.Errorf("activate store subscription: %w", err)
	}

	r.cachePlan(storeID, plan)
	r.log.Info().Str("store_id", storeID).Str("plan", plan).Msg("store plan updated")
	return nil
}

func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, evt Event) error {
	sub, store, err := r.resolveSubscriptionStore(evt)
	if err != nil || store == nil {
		return err
	}

	priceRef := ""
	if len(sub.Items.Data) > 0 {
		priceRef = sub.Items.Data[0].Price.ID
	}
	plan := r.plans.Resolve(priceRef)

	if err := r.repo.UpdateStorePlan(store.ID, plan); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn().Str("store_id", store.ID).Msg("store vanished during reconciliation")
			return nil
		}
		return fmt.Errorf("update store plan: %w", err)
	}

	r.cachePlan(store.ID, plan)
	r.log.Info().Str("store_id", store.ID).Str("plan", plan).Msg("store plan updated")
	return nil
}

func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, evt Event) error {
	_, store, err := r.resolveSubscriptionStore(evt)
	if err != nil || store == nil {
		return err
	}

	if err := r.repo.CancelStoreSubscription(store.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn().Str("store_id", store.ID).Msg("store vanished during reconciliation")
			return nil
		}
		return fmt.Errorf("cancel store subscription: %w", err)
	}

	r.cachePlan(store.ID, models.PlanFree)
	r.log.Info().Str("store_id", store.ID).Msg("store downgraded to free")
	return nil
}

// resolveSubscriptionStore decodes a subscription payload and resolves the
// owning store by Stripe customer id. A missing mapping is a benign no-op
// (duplicate or late delivery for a deleted store is expected), signalled by
// a nil store with nil error.
func (r *Reconciler) resolveSubscriptionStore(evt Event) (*subscriptionState, *models.Store, error) {
	var sub subscriptionState
	if err := json.Unmarshal(evt.Payload, &sub); err != nil {
		return nil, nil, fmt.Errorf("decode subscription: %w", err)
	}
	if sub.Customer == "" {
		r.log.Warn().Str("event_id", evt.ID).Msg("subscription event without customer ref")
		return &sub, nil, nil
	}

	store, err := r.repo.GetStoreByStripeCustomerID(sub.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn().Str("customer_id", sub.Customer).Msg("store not found for customer")
			return &sub, nil, nil
		}
		return &sub, nil, fmt.Errorf("lookup store by customer: %w", err)
	}
	return &sub, store, nil
}

func (r *Reconciler) cachePlan(storeID, plan string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetPlan(storeID, plan); err != nil {
		r.log.Warn().Err(err).Str("store_id", storeID).Msg("plan cache update failed")
	}
}

// RecordWebhookEvent persists a delivery idempotently. The returned bool is
// false when the event id was seen before.
func (r *Reconciler) RecordWebhookEvent(in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        ProviderStripe,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return r.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed stamps an event as processed with an optional error.
func (r *Reconciler) MarkWebhookProcessed(webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return r.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
