package constants

// Static route constants
const (
	HealthRoute        = "/healthz"
	StripeWebhookRoute = "/webhooks/stripe"
	APIRoute           = "/api"
	APIV1Route         = "/v1"
)
