package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/staffing"
)

var validate = validator.New()

// leaveStoreStatus maps cleanup-workflow failures onto HTTP status codes.
// Validation and authorization failures get distinct, actionable responses;
// everything else is an opaque server error.
func leaveStoreStatus(err error) int {
	switch {
	case errors.Is(err, staffing.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, staffing.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, staffing.ErrMissingArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, staffing.ErrStaffNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
