package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/billing"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/entitlements"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/metrics/counter"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/statistics"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/usercontext"
)

const stripeCallTimeout = 20 * time.Second

// BillingController owns the Stripe-facing endpoints: checkout session
// creation, customer portal session creation and the webhook ingress.
type BillingController struct {
	db         *gorm.DB
	stripe     *billing.Client
	repo       billing.Repository
	reconciler *billing.Reconciler
	log        zerolog.Logger
}

var billingController *BillingController

// InitializeBillingController wires the billing stack once at startup.
func InitializeBillingController(db *gorm.DB, log zerolog.Logger) {
	repo := billing.NewRepository(db)
	client := billing.NewClientFromEnv()
	billingController = &BillingController{
		db:     db,
		stripe: client,
		repo:   repo,
		reconciler: billing.NewReconciler(
			repo,
			billing.NewPlanResolverFromEnv(),
			client,
			billing.NewRedisPlanCache(),
			log,
		),
		log: log,
	}
}

type checkoutSessionRequest struct {
	PriceID string `json:"priceId" validate:"required"`
	StoreID string `json:"storeId" validate:"required"`
}

// HandleCreateCheckoutSession opens a Stripe subscription checkout for the
// caller's store.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req checkoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "priceId and storeId are required"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "priceId and storeId are required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), stripeCallTimeout)
	defer cancel()

	session, err := billingController.stripe.CreateCheckoutSession(ctx, req.PriceID, req.StoreID, userCtx.UserID)
	if err != nil {
		// Full detail for operators, generic message for the caller.
		billingController.log.Error().Err(err).Str("store_id", req.StoreID).Msg("checkout session creation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create checkout session"})
	}

	billingController.log.Info().Str("session_id", session.ID).Str("store_id", req.StoreID).Msg("checkout session created")
	return c.Status(fiber.StatusOK).JSON(session)
}

type portalSessionRequest struct {
	StoreID string `json:"storeId" validate:"required"`
}

// HandleCreatePortalSession opens a Stripe customer portal session for a
// store that already has a billing identity.
func HandleCreatePortalSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req portalSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "storeId is required"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "storeId is required"})
	}

	store, err := billingController.repo.GetStoreByID(req.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
		}
		billingController.log.Error().Err(err).Str("store_id", req.StoreID).Msg("store lookup failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create customer portal session"})
	}
	if store.StripeCustomerID == nil || *store.StripeCustomerID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer reference not found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), stripeCallTimeout)
	defer cancel()

	url, err := billingController.stripe.CreatePortalSession(ctx, *store.StripeCustomerID)
	if err != nil {
		billingController.log.Error().Err(err).Str("store_id", req.StoreID).Msg("customer portal session creation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create customer portal session"})
	}

	billingController.log.Info().Str("store_id", req.StoreID).Msg("customer portal session created")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
}

// HandleStripeWebhook is the billing event ingress. Signature verification
// is a hard prerequisite: unverifiable payloads are rejected with 400 and
// never reach the reconciler. Successful processing (including benign
// no-ops) is acknowledged with 200 so Stripe stops retrying; transient
// repository failures return 500 so Stripe redelivers later.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	evt, err := billingController.stripe.VerifyWebhook(rawBody, signature)
	if err != nil {
		billingController.log.Warn().Err(err).Msg("webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	billingController.log.Info().Str("event_id", evt.ID).Str("event_type", evt.Type).Msg("webhook event received")
	_ = counter.AddWebhookReceived(evt.Type)

	created, stored, err := billingController.reconciler.RecordWebhookEvent(billing.WebhookEventInput{
		ProviderEventID: evt.ID,
		EventType:       evt.Type,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		billingController.log.Error().Err(err).Str("event_id", evt.ID).Msg("webhook event persistence failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		// Only a delivery whose previous attempt completed cleanly is a true
		// duplicate. A recorded-but-failed attempt must run again so the
		// store converges; transitions are idempotent sets, so reprocessing
		// is safe.
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			_ = counter.AddWebhookDuplicate(evt.Type)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
		}
		billingController.log.Info().Str("event_id", evt.ID).Msg("reprocessing previously failed webhook event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), stripeCallTimeout)
	defer cancel()

	processErr := billingController.reconciler.Process(ctx, evt)
	if err := billingController.reconciler.MarkWebhookProcessed(stored.ID, processErr); err != nil {
		billingController.log.Warn().Err(err).Str("event_id", evt.ID).Msg("webhook bookkeeping failed")
	}
	if processErr != nil {
		_ = counter.AddWebhookFailed(evt.Type)
		billingController.log.Error().Err(processErr).Str("event_id", evt.ID).Msg("webhook processing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// HandleGetStorePlan reports a store's effective plan and staff allowance,
// cache first with DB fallback.
func HandleGetStorePlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	storeID := c.Params("id")
	plan, err := entitlements.EffectivePlan(billingController.db, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
		}
		billingController.log.Error().Err(err).Str("store_id", storeID).Msg("plan lookup failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan lookup failed"})
	}

	resp := fiber.Map{
		"plan":     string(plan),
		"maxStaff": entitlements.MaxStaff(plan),
	}
	if stats, err := statistics.GetStoreStats(billingController.db, storeID); err == nil {
		resp["activeStaff"] = stats.ActiveStaff
		resp["upcomingShifts"] = stats.UpcomingShifts
	} else {
		billingController.log.Warn().Err(err).Str("store_id", storeID).Msg("store stats unavailable")
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleGetWebhookMetrics reports the running webhook delivery counters.
func HandleGetWebhookMetrics(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	snap, err := counter.SnapshotWebhooks()
	if err != nil {
		billingController.log.Error().Err(err).Msg("webhook metrics read failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(snap)
}
