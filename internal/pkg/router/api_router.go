package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ShiftDeskApp/ShiftDesk/app/controllers"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/constants"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())

	v1 := api.Group(constants.APIV1Route, middleware.RequireAuth)

	// Billing
	v1.Post("/billing/checkout-session", controllers.HandleCreateCheckoutSession)
	v1.Post("/billing/portal-session", controllers.HandleCreatePortalSession)
	v1.Get("/billing/webhook-metrics", controllers.HandleGetWebhookMetrics)
	v1.Get("/stores/:id/plan", controllers.HandleGetStorePlan)

	// Staff membership
	v1.Post("/staff/leave-store", controllers.HandleLeaveStore)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
