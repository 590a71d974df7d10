package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func chatError(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, services.ErrNotMatched) {
		return fail(c, fiber.StatusForbidden, err.Error())
	}
	return matchingError(c, err, action)
}

func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	otherID, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}

	chat, err := h.chatService.GetChat(c.UserContext(), userID, otherID)
	if err != nil {
		return chatError(c, err, "get_chat")
	}
	return c.JSON(chat)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	otherID, ok := paramID(c, "userId", "user ID")
	if !ok {
		return nil
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	msg, err := h.chatService.SendMessage(c.UserContext(), userID, otherID, req.Text)
	if err != nil {
		return chatError(c, err, "send_message")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
