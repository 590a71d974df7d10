package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/middleware"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "Unauthorized")
}

// currentUser reads the caller's id from the JWT. ok is false when a 401 has
// already been written.
func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := middleware.GetUserID(c)
	if err != nil {
		_ = unauthorized(c)
		return uuid.Nil, false
	}
	return id, true
}

func paramID(c *fiber.Ctx, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = fail(c, fiber.StatusBadRequest, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// matchingStatus maps engine sentinels to HTTP statuses. Clients get the
// sentinel's text, never the wrapped detail.
var matchingStatus = []struct {
	err    error
	status int
}{
	{matching.ErrInvalidSelfTarget, fiber.StatusBadRequest},
	{matching.ErrInvalidKind, fiber.StatusBadRequest},
	{matching.ErrInvalidDecision, fiber.StatusBadRequest},
	{matching.ErrNotFound, fiber.StatusNotFound},
	{matching.ErrDuplicateEdge, fiber.StatusConflict},
	{matching.ErrAlreadySent, fiber.StatusConflict},
	{matching.ErrInvalidState, fiber.StatusConflict},
	{matching.ErrQuotaExceeded, fiber.StatusTooManyRequests},
	{matching.ErrBlocked, fiber.StatusForbidden},
	{services.ErrUserNotFound, fiber.StatusNotFound},
}

// matchingError writes the response for an error from the matching engine or
// a service built on it.
func matchingError(c *fiber.Ctx, err error, action string) error {
	for _, m := range matchingStatus {
		if errors.Is(err, m.err) {
			return fail(c, m.status, m.err.Error())
		}
	}
	// validation messages are written for the client
	if errors.Is(err, services.ErrValidation) {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	slog.Error(action+" failed", "action", action, "error", err, "request_id", c.GetRespHeader(fiber.HeaderXRequestID))
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}
