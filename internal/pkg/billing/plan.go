package billing

import (
	"strings"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/entitlements"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/env"
)

// PlanResolver maps Stripe price IDs to internal plans. The mapping is
// configuration, not business logic: price IDs differ between test and live
// mode and rotate when pricing changes, so they never appear in control flow.
type PlanResolver struct {
	mapping map[string]string
}

// NewPlanResolver builds a resolver from a price-ref -> plan mapping.
// Values are normalized; unknown plans collapse to free.
func NewPlanResolver(mapping map[string]string) *PlanResolver {
	m := make(map[string]string, len(mapping))
	for ref, plan := range mapping {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		m[ref] = string(entitlements.Normalize(plan))
	}
	return &PlanResolver{mapping: m}
}

// NewPlanResolverFromEnv reads the price mapping from STRIPE_PRICE_BASIC and
// STRIPE_PRICE_PRO.
func NewPlanResolverFromEnv() *PlanResolver {
	mapping := map[string]string{}
	if ref := env.GetEnv("STRIPE_PRICE_BASIC", ""); ref != "" {
		mapping[ref] = string(entitlements.PlanBasic)
	}
	if ref := env.GetEnv("STRIPE_PRICE_PRO", ""); ref != "" {
		mapping[ref] = string(entitlements.PlanPro)
	}
	return NewPlanResolver(mapping)
}

// Resolve returns the internal plan for a Stripe price ref. Resolve is total:
// any ref not present in the mapping yields the lowest tier.
func (r *PlanResolver) Resolve(priceRef string) string {
	if plan, ok := r.mapping[strings.TrimSpace(priceRef)]; ok {
		return plan
	}
	return string(entitlements.PlanFree)
}
