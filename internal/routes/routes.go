package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/handlers"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/middleware"
	"gorm.io/gorm"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Verification *handlers.VerificationHandler
	Profile      *handlers.ProfileHandler
	User         *handlers.UserHandler
	Request      *handlers.RequestHandler
	Photo        *handlers.PhotoHandler
	Chat         *handlers.ChatHandler
	Moderation   *handlers.ModerationHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
	Legal        *handlers.LegalHandler
	ClientConfig *handlers.ClientConfigHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/config", h.ClientConfig.GetConfig)
	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so it never leaks onto the public ones above
	protected := middleware.JWTProtected(cfg)
	verified := middleware.VerifiedRequired(db, cfg)

	api.Post("/auth/logout", protected, h.Auth.Logout)
	api.Delete("/auth/account", protected, h.Auth.DeleteAccount)

	verification := api.Group("/verification", protected)
	verification.Post("/send-otp", h.Verification.SendOTP)
	verification.Post("/verify-otp", h.Verification.VerifyOTP)

	api.Get("/profile", protected, h.Profile.GetProfile)
	api.Patch("/profile", protected, h.Profile.UpdateProfile)
	api.Get("/profile/:id", protected, h.Profile.GetUserProfile)

	api.Get("/feed", protected, verified, h.User.Feed)
	user := api.Group("/user", protected)
	user.Get("/connections", h.User.Connections)
	user.Get("/requests/received", h.User.RequestsReceived)
	user.Get("/saved", h.User.Saved)
	user.Get("/special-likes", h.User.SpecialLikes)
	user.Get("/reminders", h.User.Reminders)

	// Likes are paced per user on top of the per-IP limit
	request := api.Group("/request", protected, verified, limiter.New(limiter.Config{
		Max:               30,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, err := middleware.GetUserID(c); err == nil {
				return id.String()
			}
			return c.IP()
		},
	}))
	request.Post("/send/:status/:userId", h.Request.Send)
	request.Post("/review/:status/:requestId", h.Request.Review)
	request.Post("/special-like/:userId", h.Request.SpecialLike)
	request.Post("/block/:userId", h.Request.Block)
	request.Get("/status/:userId", h.Request.Status)
	request.Post("/reminder/:requestId/reviewed", h.Request.MarkReviewed)
	request.Post("/reminder/:userId", h.Request.SendReminder)

	photos := api.Group("/photos", protected, verified)
	photos.Get("/", h.Photo.List)
	photos.Post("/", h.Photo.Upload)
	photos.Post("/upload-url", h.Photo.UploadURL)
	photos.Put("/:id", h.Photo.Replace)
	photos.Delete("/:id", h.Photo.Delete)
	photos.Delete("/", h.Photo.DeleteAll)

	chat := api.Group("/chat", protected, verified)
	chat.Get("/:userId", h.Chat.GetChat)
	chat.Post("/:userId/messages", h.Chat.SendMessage)

	api.Post("/reports", protected, h.Moderation.CreateReport)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", protected, middleware.AdminRequired(db, cfg))
	admin.Get("/moderation/reports", h.Moderation.ListReports)
	admin.Put("/moderation/reports/:id", h.Moderation.ActionReport)
	admin.Get("/jobs", h.Admin.ListJobs)
	admin.Post("/jobs/:name/run", h.Admin.RunJob)
}
