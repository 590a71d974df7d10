package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	user, err := h.profileService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch profile")
	}
	return c.JSON(user)
}

func (h *ProfileHandler) GetUserProfile(c *fiber.Ctx) error {
	viewerID, ok := currentUser(c)
	if !ok {
		return nil
	}
	targetID, ok := paramID(c, "id", "user ID")
	if !ok {
		return nil
	}

	profile, err := h.profileService.GetPublicProfile(viewerID, targetID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch profile")
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil || len(req) == 0 {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.profileService.UpdateProfile(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return fail(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "user": user})
}
