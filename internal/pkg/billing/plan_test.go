package billing

import "testing"

func TestPlanResolverResolve(t *testing.T) {
	r := NewPlanResolver(map[string]string{
		"price_basic_123": "basic",
		"price_pro_456":   "pro",
	})

	tests := []struct {
		in   string
		want string
	}{
		{in: "price_basic_123", want: "basic"},
		{in: "price_pro_456", want: "pro"},
		{in: "price_unknown", want: "free"},
		{in: "", want: "free"},
		{in: " price_basic_123 ", want: "basic"},
	}

	for _, tt := range tests {
		if got := r.Resolve(tt.in); got != tt.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanResolverNormalizesMapping(t *testing.T) {
	r := NewPlanResolver(map[string]string{
		"price_a": "PRO",
		"price_b": "enterprise",
		"":        "basic",
	})

	if got := r.Resolve("price_a"); got != "pro" {
		t.Fatalf("expected mapping values to be normalized, got %q", got)
	}
	// Unmappable plan names collapse to free rather than leaking through.
	if got := r.Resolve("price_b"); got != "free" {
		t.Fatalf("Resolve(price_b) = %q, want free", got)
	}
}
