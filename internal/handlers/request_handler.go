package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

// RequestHandler exposes the match resolver and the reminder tracker.
type RequestHandler struct {
	engine        *matching.Engine
	notifications *services.NotificationService
}

func NewRequestHandler(engine *matching.Engine, notifications *services.NotificationService) *RequestHandler {
	return &RequestHandler{engine: engine, notifications: notifications}
}

func (h *RequestHandler) Send(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	kind, err := matching.ParseKind(c.Params("status"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	target, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}

	res, err := h.engine.SendLike(c.UserContext(), actor, target, kind)
	if err != nil {
		return matchingError(c, err, "send_like")
	}
	h.notifications.NotifyOutcome(c.UserContext(), res)
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *RequestHandler) Review(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	decision, err := matching.ParseDecision(c.Params("status"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	requestID, ok := paramID(c, "requestId", "request ID")
	if !ok {
		return nil
	}

	edge, err := h.engine.Review(c.UserContext(), actor, requestID, decision)
	if err != nil {
		return matchingError(c, err, "review")
	}
	h.notifications.Matched(c.UserContext(), edge)
	return c.JSON(fiber.Map{"message": "Request " + string(decision), "request": edge})
}

func (h *RequestHandler) SpecialLike(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	target, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}

	res, err := h.engine.SendSpecialLike(c.UserContext(), actor, target)
	if err != nil {
		return matchingError(c, err, "special_like")
	}
	h.notifications.NotifyOutcome(c.UserContext(), res)
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *RequestHandler) Block(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	target, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}

	if err := h.engine.Block(c.UserContext(), actor, target); err != nil {
		return matchingError(c, err, "block")
	}
	return c.JSON(fiber.Map{"message": "User blocked successfully"})
}

func (h *RequestHandler) Status(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	target, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}

	view, err := h.engine.GetStatus(c.UserContext(), actor, target)
	if err != nil {
		return matchingError(c, err, "status")
	}
	return c.JSON(view)
}

func (h *RequestHandler) SendReminder(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	target, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}

	edge, err := h.engine.SendReminder(c.UserContext(), actor, target)
	if err != nil {
		return matchingError(c, err, "send_reminder")
	}
	h.notifications.Reminded(c.UserContext(), edge)
	return c.JSON(fiber.Map{"message": "Reminder sent", "request": edge})
}

func (h *RequestHandler) MarkReviewed(c *fiber.Ctx) error {
	actor, ok := currentUser(c)
	if !ok {
		return nil
	}
	requestID, ok := paramID(c, "requestId", "request ID")
	if !ok {
		return nil
	}

	edge, err := h.engine.MarkReviewed(c.UserContext(), actor, requestID)
	if err != nil {
		return matchingError(c, err, "mark_reviewed")
	}
	return c.JSON(fiber.Map{"message": "Reminder marked as reviewed", "request": edge})
}
