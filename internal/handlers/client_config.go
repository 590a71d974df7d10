package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
)

// ClientConfigHandler publishes the limits a client needs to render counters
// and upload pickers without hard-coding them.
type ClientConfigHandler struct {
	values fiber.Map
}

func NewClientConfigHandler(cfg *config.Config) *ClientConfigHandler {
	return &ClientConfigHandler{values: fiber.Map{
		"dailyLikeLimit":   cfg.DailyLikeLimit,
		"specialLikeLimit": cfg.SpecialLikeLimit,
		"quotaResetHour":   cfg.QuotaResetHour,
		"decayStartHour":   cfg.DecayStartHour,
		"decayEndHour":     cfg.DecayEndHour,
		"timezone":         cfg.JobTimezone,
		"maxPhotos":        services.MaxPhotos,
		"photoExtensions":  []string{"jpg", "jpeg", "png", "gif", "webp"},
		"otpExpirySeconds": int(cfg.OTPExpiry.Seconds()),
		"otpResendSeconds": int(cfg.OTPResendInterval.Seconds()),
		"requireVerified":  cfg.RequireVerified,
		"websocketPort":    cfg.WSPort,
	}}
}

func (h *ClientConfigHandler) GetConfig(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return c.JSON(h.values)
}
