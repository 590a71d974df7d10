package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Redis (optional; empty address falls back to in-process locks and pub/sub)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// S3 photo storage
	AWSRegion      string
	S3Bucket       string
	S3Endpoint     string
	S3PublicURL    string
	S3UsePathStyle bool

	// SMTP for OTP mail (optional; empty host logs mails instead)
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Verification
	OTPExpiry          time.Duration
	OTPResendInterval  time.Duration
	BlockedMailDomains string
	RequireVerified    bool

	// Matching quotas
	DailyLikeLimit   int
	SpecialLikeLimit int

	// Maintenance jobs
	QuotaResetHour   int
	DecayStartHour   int
	DecayEndHour     int
	JobBatchSize     int
	JobBatchPace     time.Duration
	JobLockTTL       time.Duration
	LogRetentionDays int
	JobTimezone      string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	WSPort      string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string
	LogLevel    string

	SupportEmail string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lynk"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "lynk.db"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
		S3Bucket:       getEnv("AWS_S3_BUCKET", ""),
		S3Endpoint:     getEnv("AWS_S3_ENDPOINT", ""),
		S3PublicURL:    getEnv("AWS_S3_PUBLIC_URL", ""),
		S3UsePathStyle: getEnvBool("AWS_S3_PATH_STYLE", false),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@lynk.app"),

		OTPExpiry:          parseDuration(getEnv("OTP_EXPIRY", "2m")),
		OTPResendInterval:  parseDuration(getEnv("OTP_RESEND_INTERVAL", "60s")),
		BlockedMailDomains: getEnv("BLOCKED_MAIL_DOMAINS", "mailinator.com,tempmail.com,10minutemail.com"),
		RequireVerified:    getEnvBool("REQUIRE_VERIFIED", true),

		DailyLikeLimit:   getEnvInt("DAILY_LIKE_LIMIT", 8),
		SpecialLikeLimit: getEnvInt("SPECIAL_LIKE_LIMIT", 3),

		QuotaResetHour:   getEnvInt("QUOTA_RESET_HOUR", 23),
		DecayStartHour:   getEnvInt("DECAY_START_HOUR", 4),
		DecayEndHour:     getEnvInt("DECAY_END_HOUR", 22),
		JobBatchSize:     getEnvInt("JOB_BATCH_SIZE", 10),
		JobBatchPace:     parseDuration(getEnv("JOB_BATCH_PACE", "50ms")),
		JobLockTTL:       parseDuration(getEnv("JOB_LOCK_TTL", "30m")),
		LogRetentionDays: getEnvInt("LOG_RETENTION_DAYS", 30),
		JobTimezone:      getEnv("JOB_TIMEZONE", "Local"),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		WSPort:      getEnv("WS_PORT", "8081"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SupportEmail: getEnv("SUPPORT_EMAIL", "support@lynk.app"),
	}
}

func (c *Config) DSN() string {
	switch c.DBDriver {
	case "mysql":
		return c.DBUser + ":" + c.DBPassword +
			"@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
			"?charset=utf8mb4&parseTime=True&loc=UTC"
	case "sqlite":
		return c.DBPath
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}
