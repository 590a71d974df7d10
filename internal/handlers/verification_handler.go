package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

func (h *VerificationHandler) SendOTP(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	expiresAt, err := h.verificationService.SendOTP(c.UserContext(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyVerified):
			return fail(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, services.ErrBlockedDomain):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrOTPThrottled):
			return fail(c, fiber.StatusTooManyRequests, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("send otp failed", "user_id", userID.String(), "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to send verification code")
	}

	return c.JSON(fiber.Map{"message": "Verification code sent", "expiresAt": expiresAt})
}

func (h *VerificationHandler) VerifyOTP(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil || req.OTP == "" {
		return fail(c, fiber.StatusBadRequest, "OTP is required")
	}

	if err := h.verificationService.VerifyOTP(c.UserContext(), userID, req.OTP); err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyVerified):
			return fail(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, services.ErrOTPMissing),
			errors.Is(err, services.ErrOTPExpired),
			errors.Is(err, services.ErrOTPInvalid):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, err.Error())
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to verify code")
	}

	return c.JSON(fiber.Map{"message": "Email verified successfully"})
}
