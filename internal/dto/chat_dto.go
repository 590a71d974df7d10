package dto

import (
	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

type SendMessageRequest struct {
	Text string `json:"text"`
}

type ChatResponse struct {
	ID       uuid.UUID            `json:"id"`
	With     PublicProfile        `json:"with"`
	Messages []models.ChatMessage `json:"messages"`
}

type PresignRequest struct {
	Extension string `json:"extension"`
}

type PresignResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int    `json:"expiresIn"`
}
