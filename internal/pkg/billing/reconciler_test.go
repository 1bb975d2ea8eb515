package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
)

type fakeRepo struct {
	stores     map[string]*models.Store
	failWrites bool
	events     []*models.BillingWebhookEvent
}

func newFakeRepo(stores ...*models.Store) *fakeRepo {
	r := &fakeRepo{stores: map[string]*models.Store{}}
	for _, s := range stores {
		r.stores[s.ID] = s
	}
	return r
}

func (r *fakeRepo) GetStoreByID(id string) (*models.Store, error) {
	if s, ok := r.stores[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetStoreByStripeCustomerID(customerID string) (*models.Store, error) {
	for _, s := range r.stores {
		if s.StripeCustomerID != nil && *s.StripeCustomerID == customerID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) ActivateStoreSubscription(storeID, plan, customerID, subscriptionID string) error {
	if r.failWrites {
		return errors.New("write failed")
	}
	s, ok := r.stores[storeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Plan = plan
	s.StripeCustomerID = &customerID
	s.StripeSubscriptionID = &subscriptionID
	return nil
}

func (r *fakeRepo) UpdateStorePlan(storeID, plan string) error {
	if r.failWrites {
		return errors.New("write failed")
	}
	s, ok := r.stores[storeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Plan = plan
	return nil
}

func (r *fakeRepo) CancelStoreSubscription(storeID string) error {
	if r.failWrites {
		return errors.New("write failed")
	}
	s, ok := r.stores[storeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Plan = models.PlanFree
	s.StripeSubscriptionID = nil
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	for _, e := range r.events {
		if e.ProviderEventID == event.ProviderEventID {
			return false, e, nil
		}
	}
	event.ID = uint(len(r.events) + 1)
	r.events = append(r.events, event)
	return true, event, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeFetcher struct {
	prices map[string]string
	err    error
}

func (f *fakeFetcher) SubscriptionPriceRef(_ context.Context, subscriptionID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if ref, ok := f.prices[subscriptionID]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("unknown subscription %s", subscriptionID)
}

func testResolver() *PlanResolver {
	return NewPlanResolver(map[string]string{
		"price_basic": "basic",
		"price_pro":   "pro",
	})
}

func testReconciler(repo Repository, fetcher SubscriptionFetcher) *Reconciler {
	return NewReconciler(repo, testResolver(), fetcher, nil, zerolog.Nop())
}

func checkoutCompletedEvent(storeID string) Event {
	return Event{
		ID:   "evt_1",
		Type: EventCheckoutCompleted,
		Payload: []byte(`{
			"id": "cs_1",
			"customer": "cus_1",
			"subscription": "sub_1",
			"metadata": {"storeId": "` + storeID + `", "uid": "U1"}
		}`),
	}
}

func subscriptionEvent(eventType, customer, priceRef string) Event {
	return Event{
		ID:   "evt_2",
		Type: eventType,
		Payload: []byte(`{
			"id": "sub_1",
			"customer": "` + customer + `",
			"items": {"data": [{"price": {"id": "` + priceRef + `"}}]}
		}`),
	}
}

func TestProcessCheckoutCompleted(t *testing.T) {
	repo := newFakeRepo(&models.Store{ID: "S1", Plan: models.PlanFree})
	rec := testReconciler(repo, &fakeFetcher{prices: map[string]string{"sub_1": "price_basic"}})

	if err := rec.Process(context.Background(), checkoutCompletedEvent("S1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := repo.stores["S1"]
	if s.Plan != models.PlanBasic {
		t.Fatalf("plan = %q, want basic", s.Plan)
	}
	if s.StripeCustomerID == nil || *s.StripeCustomerID != "cus_1" {
		t.Fatalf("expected customer ref cus_1, got %v", s.StripeCustomerID)
	}
	if s.StripeSubscriptionID == nil || *s.StripeSubscriptionID != "sub_1" {
		t.Fatalf("expected subscription ref sub_1, got %v", s.StripeSubscriptionID)
	}
}

func TestProcessCheckoutCompletedIdempotent(t *testing.T) {
	repo := newFakeRepo(&models.Store{ID: "S1", Plan: models.PlanFree})
	rec := testReconciler(repo, &fakeFetcher{prices: map[string]string{"sub_1": "price_basic"}})

	evt := checkoutCompletedEvent("S1")
	if err := rec.Process(context.Background(), evt); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	first := *repo.stores["S1"]

	if err := rec.Process(context.Background(), evt); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	second := *repo.stores["S1"]

	if first.Plan != second.Plan ||
		*first.StripeCustomerID != *second.StripeCustomerID ||
		*first.StripeSubscriptionID != *second.StripeSubscriptionID {
		t.Fatalf("replayed event changed state: %+v vs %+v", first, second)
	}
}

func TestProcessSubscriptionDeleted(t *testing.T) {
	cus := "cus_1"
	sub := "sub_1"
	repo := newFakeRepo(&models.Store{
		ID: "S1", Plan: models.PlanPro,
		StripeCustomerID: &cus, StripeSubscriptionID: &sub,
	})
	rec := testReconciler(repo, &fakeFetcher{})

	if err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionDeleted, "cus_1", "price_pro")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := repo.stores["S1"]
	if s.Plan != models.PlanFree {
		t.Fatalf("plan = %q, want free", s.Plan)
	}
	if s.StripeSubscriptionID != nil {
		t.Fatalf("expected subscription ref cleared, got %v", *s.StripeSubscriptionID)
	}
	// Customer ref is retained so the store can re-subscribe.
	if s.StripeCustomerID == nil || *s.StripeCustomerID != "cus_1" {
		t.Fatalf("expected customer ref retained, got %v", s.StripeCustomerID)
	}
}

func TestProcessSubscriptionUpdatedUnknownCustomer(t *testing.T) {
	repo := newFakeRepo(&models.Store{ID: "S1", Plan: models.PlanFree})
	rec := testReconciler(repo, &fakeFetcher{})

	if err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionUpdated, "cus_missing", "price_pro")); err != nil {
		t.Fatalf("unknown customer must be a benign no-op, got %v", err)
	}
	if repo.stores["S1"].Plan != models.PlanFree {
		t.Fatalf("no-op event mutated the store")
	}
}

func TestProcessLastAppliedEventWins(t *testing.T) {
	cus := "cus_1"
	sub := "sub_1"
	newStore := func() *models.Store {
		c, s := cus, sub
		return &models.Store{ID: "S1", Plan: models.PlanBasic, StripeCustomerID: &c, StripeSubscriptionID: &s}
	}

	// deleted then updated: the update resurrects the plan.
	repo := newFakeRepo(newStore())
	rec := testReconciler(repo, &fakeFetcher{})
	if err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionDeleted, "cus_1", "price_pro")); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionUpdated, "cus_1", "price_pro")); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if repo.stores["S1"].Plan != models.PlanPro {
		t.Fatalf("after deleted->updated plan = %q, want pro", repo.stores["S1"].Plan)
	}

	// updated then deleted: the store ends up free.
	repo = newFakeRepo(newStore())
	rec = testReconciler(repo, &fakeFetcher{})
	if err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionUpdated, "cus_1", "price_pro")); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionDeleted, "cus_1", "price_pro")); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if repo.stores["S1"].Plan != models.PlanFree {
		t.Fatalf("after updated->deleted plan = %q, want free", repo.stores["S1"].Plan)
	}
}

func TestProcessUnhandledEventType(t *testing.T) {
	repo := newFakeRepo(&models.Store{ID: "S1", Plan: models.PlanFree})
	rec := testReconciler(repo, &fakeFetcher{})

	err := rec.Process(context.Background(), Event{ID: "evt_x", Type: "invoice.paid", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("unhandled event types must not error, got %v", err)
	}
}

func TestProcessRepositoryFailureSurfaced(t *testing.T) {
	cus := "cus_1"
	repo := newFakeRepo(&models.Store{ID: "S1", Plan: models.PlanBasic, StripeCustomerID: &cus})
	repo.failWrites = true
	rec := testReconciler(repo, &fakeFetcher{})

	err := rec.Process(context.Background(), subscriptionEvent(EventSubscriptionUpdated, "cus_1", "price_pro"))
	if err == nil {
		t.Fatalf("expected repository failure to surface for retry")
	}
}

func TestProcessCheckoutCompletedFetcherFailure(t *testing.T) {
	repo := newFakeRepo(&models.Store{ID: "S1", Plan: models.PlanFree})
	rec := testReconciler(repo, &fakeFetcher{err: errors.New("stripe unavailable")})

	if err := rec.Process(context.Background(), checkoutCompletedEvent("S1")); err == nil {
		t.Fatalf("expected fetcher failure to surface for retry")
	}
	if repo.stores["S1"].Plan != models.PlanFree {
		t.Fatalf("failed event must not mutate the store")
	}
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	rec := testReconciler(repo, &fakeFetcher{})

	created, stored, err := rec.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1",
		EventType:       EventCheckoutCompleted,
		PayloadJSON:     "{}",
		SignatureValid:  true,
	})
	if err != nil || !created || stored == nil {
		t.Fatalf("first record: created=%v stored=%v err=%v", created, stored, err)
	}

	created, _, err = rec.RecordWebhookEvent(WebhookEventInput{
		ProviderEventID: "evt_1",
		EventType:       EventCheckoutCompleted,
		PayloadJSON:     "{}",
		SignatureValid:  true,
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if created {
		t.Fatalf("duplicate event id must not create a second row")
	}
}

func TestRecordWebhookEventHashFallback(t *testing.T) {
	repo := newFakeRepo()
	rec := testReconciler(repo, &fakeFetcher{})

	created, stored, err := rec.RecordWebhookEvent(WebhookEventInput{
		EventType:   "invoice.paid",
		PayloadJSON: `{"id":"evt"}`,
	})
	if err != nil || !created {
		t.Fatalf("record: created=%v err=%v", created, err)
	}
	if stored.ProviderEventID == "" {
		t.Fatalf("expected hash fallback event id")
	}
}
