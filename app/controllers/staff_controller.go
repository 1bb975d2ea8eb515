package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/staffing"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/statistics"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/usercontext"
)

// StaffController owns the staff membership endpoints.
type StaffController struct {
	cleanup *staffing.Service
	log     zerolog.Logger
}

var staffController *StaffController

// InitializeStaffController wires the staffing services once at startup.
func InitializeStaffController(db *gorm.DB, log zerolog.Logger) {
	staffController = &StaffController{
		cleanup: staffing.NewServiceFromDB(db, log),
		log:     log,
	}
}

type leaveStoreRequest struct {
	UserID  string `json:"userId"`
	StoreID string `json:"storeId"`
}

// HandleLeaveStore runs the departure cleanup for the caller's own staff
// membership. The caller waits for completion; the response carries the
// deletion counts. Precondition failures map to distinct status codes, in
// the order the workflow checks them.
func HandleLeaveStore(c *fiber.Ctx) error {
	var req leaveStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId and storeId are required"})
	}

	userCtx := usercontext.GetUserContext(c)
	result, err := staffController.cleanup.LeaveStore(context.Background(), userCtx.UserID, req.UserID, req.StoreID)
	if err != nil {
		status := leaveStoreStatus(err)
		if status == fiber.StatusInternalServerError {
			staffController.log.Error().Err(err).
				Str("user_id", req.UserID).
				Str("store_id", req.StoreID).
				Msg("leave store cleanup failed")
			// Opaque message; detail stays in the logs.
			return c.Status(status).JSON(fiber.Map{"error": "cleanup failed"})
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	statistics.Invalidate(req.StoreID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":         true,
		"deletedShifts":   result.DeletedShifts,
		"deletedRequests": result.DeletedRequests,
	})
}
