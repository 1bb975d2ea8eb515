package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShiftDeskApp/ShiftDesk/app/controllers"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/constants"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/database"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/logger"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/middleware"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	log := logger.New()
	db := database.GetDB()

	// Initialize controllers with their dependencies
	controllers.InitializeBillingController(db, log)
	controllers.InitializeStaffController(db, log)

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	// Stripe calls this endpoint directly; it lives outside /api/v1 and
	// authenticates via the signature header, not a bearer token.
	app.Post(constants.StripeWebhookRoute, controllers.HandleStripeWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
