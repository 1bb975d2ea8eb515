package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v83"
	portalsession "github.com/stripe/stripe-go/v83/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/subscription"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/env"
)

// Client wraps the Stripe SDK calls ShiftDesk makes: checkout sessions,
// customer-portal sessions, subscription price lookups and webhook
// signature verification.
type Client struct {
	webhookSecret string
	appURL        string
}

// NewClientFromEnv configures the Stripe SDK from STRIPE_SECRET_KEY and
// returns a client using STRIPE_WEBHOOK_SECRET and APP_URL.
func NewClientFromEnv() *Client {
	stripe.Key = strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	return &Client{
		webhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		appURL:        strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:8080"), "/"),
	}
}

// CheckoutSession is the caller-visible result of a checkout session call.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// CreateCheckoutSession opens a subscription checkout for a store. The store
// and user ids travel as session metadata and come back on the
// checkout.session.completed webhook.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID, storeID, userID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(c.appURL + "/admin/dashboard?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.appURL + "/admin/subscription"),
	}
	params.AddMetadata("storeId", storeID)
	params.AddMetadata("uid", userID)

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreatePortalSession opens a Stripe customer portal session and returns the
// redirect URL.
func (c *Client) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.appURL + "/admin/subscription"),
	}
	s, err := portalsession.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// SubscriptionPriceRef implements SubscriptionFetcher against the Stripe API.
func (c *Client) SubscriptionPriceRef(ctx context.Context, subscriptionID string) (string, error) {
	s, err := subscription.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", err
	}
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return "", errors.New("subscription has no price items")
	}
	return s.Items.Data[0].Price.ID, nil
}

// VerifyWebhook checks the Stripe-Signature header against the shared
// webhook secret and returns the decoded event. Unverifiable payloads must
// never reach the reconciler.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (Event, error) {
	ev, err := webhook.ConstructEvent(payload, signatureHeader, c.webhookSecret)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Payload: ev.Data.Raw,
	}, nil
}
