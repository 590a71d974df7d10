package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/database"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/handlers"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/jobs"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/logging"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/mailer"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/middleware"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/realtime"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/repository"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/routes"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/services"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/storage"
)

const logCleanupTask = "system_log_cleanup"

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logLevel := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(logLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required", "driver", cfg.DBDriver)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB, 5*time.Second)
	logging.Setup(logLevel, dbLogHandler)

	// Cache, locks and pub/sub (Redis when REDIS_ADDR is set)
	kv, pubsub, err := cache.New(cfg)
	if err != nil {
		slog.Error("cache connection failed", "error", err)
		os.Exit(1)
	}

	// Photo storage
	var blobs storage.BlobStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg)
		if err != nil {
			slog.Error("s3 setup failed", "error", err)
			os.Exit(1)
		}
		blobs = s3Store
	} else {
		slog.Warn("AWS_S3_BUCKET not set, photos are kept in memory")
		blobs = storage.NewMemoryStore("http://localhost:" + cfg.Port + "/blobs")
	}

	// Matching engine
	engine := matching.NewEngine(
		repository.NewConnectionRepository(database.DB),
		matching.Limits{DailyLikes: cfg.DailyLikeLimit, SpecialLikes: cfg.SpecialLikeLimit},
		matching.BatchOptions{Size: cfg.JobBatchSize, Pace: cfg.JobBatchPace},
	)

	// Realtime hub
	hub := realtime.NewHub(pubsub)
	if err := hub.Start(context.Background()); err != nil {
		slog.Error("realtime hub failed to start", "error", err)
		os.Exit(1)
	}

	// Services
	mail := mailer.New(cfg)
	authService := services.NewAuthService(database.DB, cfg)
	moderationService := services.NewModerationService(database.DB)
	profileService := services.NewProfileService(database.DB, moderationService)
	userService := services.NewUserService(database.DB, engine)
	verificationService := services.NewVerificationService(database.DB, kv, mail, cfg)
	photoService := services.NewPhotoService(database.DB, blobs)
	chatService := services.NewChatService(database.DB, moderationService, hub)
	notificationService := services.NewNotificationService(database.DB, hub, mail)

	// Scheduled maintenance
	loc, err := time.LoadLocation(cfg.JobTimezone)
	if err != nil {
		slog.Warn("unknown JOB_TIMEZONE, using local time", "timezone", cfg.JobTimezone, "error", err)
		loc = time.Local
	}
	scheduler := jobs.New(loc)
	maintenance := jobs.NewMaintenance(engine, kv, cfg.JobLockTTL)
	jobs.Register(scheduler, maintenance, jobs.Schedule{
		ResetHour:  cfg.QuotaResetHour,
		DecayStart: cfg.DecayStartHour,
		DecayEnd:   cfg.DecayEndHour,
	})
	retention := time.Duration(cfg.LogRetentionDays) * 24 * time.Hour
	scheduler.AddTicker(logCleanupTask, 24*time.Hour, func(ctx context.Context) error {
		n, err := logging.CleanupSystemLogs(ctx, database.DB, retention)
		if err == nil && n > 0 {
			slog.Info("old system logs deleted", "count", n)
		}
		return err
	})

	// Handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, photoService),
		Verification: handlers.NewVerificationHandler(verificationService),
		Profile:      handlers.NewProfileHandler(profileService),
		User:         handlers.NewUserHandler(userService),
		Request:      handlers.NewRequestHandler(engine, notificationService),
		Photo:        handlers.NewPhotoHandler(photoService),
		Chat:         handlers.NewChatHandler(chatService),
		Moderation:   handlers.NewModerationHandler(moderationService),
		Admin:        handlers.NewAdminHandler(scheduler),
		Health:       handlers.NewHealthHandler(kv),
		Legal:        handlers.NewLegalHandler(cfg.SupportEmail),
		ClientConfig: handlers.NewClientConfigHandler(cfg),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024 * services.MaxPhotos,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, h)

	// Websocket gateway on its own listener
	mux := http.NewServeMux()
	mux.Handle("/ws", realtime.NewGateway(hub, authService, chatService, splitOrigins(cfg.CORSOrigins)))
	wsServer := &http.Server{
		Addr:              ":" + cfg.WSPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("websocket server starting", "port", cfg.WSPort)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("websocket server failed", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := wsServer.Shutdown(ctx); err != nil {
		slog.Error("websocket server shutdown error", "error", err)
	}
	hub.Stop()

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	notificationService.Wait()

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
