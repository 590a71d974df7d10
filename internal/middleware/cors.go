package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
)

// CORS allows the configured web origins. Credentials are only allowed for an
// explicit origin list since browsers reject them with a wildcard.
func CORS(cfg *config.Config) fiber.Handler {
	origins := strings.TrimSpace(cfg.CORSOrigins)
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Admin-Token",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		ExposeHeaders:    "X-Request-ID, Retry-After",
		AllowCredentials: origins != "*" && !strings.Contains(origins, "*"),
		MaxAge:           600,
	})
}
