package entitlements

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/cache"
)

type Plan string

const (
	PlanFree  Plan = models.PlanFree
	PlanBasic Plan = models.PlanBasic
	PlanPro   Plan = models.PlanPro
)

const planCacheTTL = 10 * time.Minute

// Normalize maps arbitrary input onto a known plan, defaulting to free.
func Normalize(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanBasic):
		return PlanBasic
	case string(PlanPro):
		return PlanPro
	default:
		return PlanFree
	}
}

// Rank orders plans so upgrades compare greater than downgrades.
func Rank(plan Plan) int {
	switch Normalize(string(plan)) {
	case PlanPro:
		return 2
	case PlanBasic:
		return 1
	default:
		return 0
	}
}

// MaxStaff returns how many active staff members a store's plan allows.
// Zero means unlimited.
func MaxStaff(plan Plan) int {
	switch Normalize(string(plan)) {
	case PlanPro:
		return 0
	case PlanBasic:
		return 15
	default:
		return 3
	}
}

// StorePlanCacheKey is the cache key holding a store's current plan.
func StorePlanCacheKey(storeID string) string {
	return "store:plan:" + storeID
}

// EffectivePlan resolves the current plan of a store, cache first with DB
// fallback. Cache misses and cache errors both fall through to the store
// record; the resolved plan is written back for subsequent requests.
func EffectivePlan(db *gorm.DB, storeID string) (Plan, error) {
	key := StorePlanCacheKey(storeID)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		return Normalize(cached), nil
	}

	store, err := models.FindStoreByID(db, storeID)
	if err != nil {
		return PlanFree, err
	}

	plan := Normalize(store.Plan)
	_ = cache.Set(key, string(plan), planCacheTTL)
	return plan, nil
}
