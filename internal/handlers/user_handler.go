package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

// UserHandler serves the read-only lists built around a user's edges.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Feed(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	feed, err := h.userService.Feed(c.UserContext(), userID, page, limit)
	if err != nil {
		return matchingError(c, err, "feed")
	}
	return c.JSON(feed)
}

func (h *UserHandler) Connections(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	list, err := h.userService.Connections(c.UserContext(), userID)
	if err != nil {
		return matchingError(c, err, "connections")
	}
	return c.JSON(fiber.Map{"connections": list, "count": len(list)})
}

func (h *UserHandler) RequestsReceived(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	list, err := h.userService.RequestsReceived(c.UserContext(), userID)
	if err != nil {
		return matchingError(c, err, "requests_received")
	}
	return c.JSON(fiber.Map{"requests": list, "count": len(list)})
}

func (h *UserHandler) Saved(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	list, err := h.userService.Saved(c.UserContext(), userID)
	if err != nil {
		return matchingError(c, err, "saved")
	}
	return c.JSON(fiber.Map{"saved": list, "count": len(list)})
}

func (h *UserHandler) SpecialLikes(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	quota, err := h.userService.Quota(c.UserContext(), userID)
	if err != nil {
		return matchingError(c, err, "quota")
	}
	return c.JSON(quota)
}

func (h *UserHandler) Reminders(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	list, err := h.userService.Reminders(c.UserContext(), userID)
	if err != nil {
		return matchingError(c, err, "reminders")
	}
	return c.JSON(fiber.Map{"reminders": list, "count": len(list)})
}
