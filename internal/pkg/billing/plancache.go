package billing

import (
	"time"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/cache"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/entitlements"
)

const planCacheTTL = 10 * time.Minute

// RedisPlanCache keeps the entitlements plan cache in sync with reconciled
// store state.
type RedisPlanCache struct{}

// NewRedisPlanCache returns a PlanCache backed by the shared cache client.
func NewRedisPlanCache() *RedisPlanCache {
	return &RedisPlanCache{}
}

func (RedisPlanCache) SetPlan(storeID, plan string) error {
	return cache.Set(entitlements.StorePlanCacheKey(storeID), plan, planCacheTTL)
}
