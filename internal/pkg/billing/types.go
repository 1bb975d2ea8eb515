package billing

import "encoding/json"

// Event kinds the reconciler knows how to apply. Everything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// ProviderStripe is the provider tag stored with webhook events.
const ProviderStripe = "stripe"

// Event is one signature-verified billing event, reduced to what the
// reconciler needs: the provider event id, the event kind, and the raw
// `data.object` payload.
type Event struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// checkoutSession is the subset of a Stripe checkout session object carried
// in a checkout.session.completed event.
type checkoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// subscriptionState is the subset of a Stripe subscription object carried in
// customer.subscription.* events.
type subscriptionState struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
