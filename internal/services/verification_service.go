package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/mailer"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrAlreadyVerified = errors.New("email already verified")
	ErrBlockedDomain   = errors.New("email domain is blocked")
	ErrOTPThrottled    = errors.New("use the code already sent or retry later")
	ErrOTPMissing      = errors.New("no valid code found, request a new one")
	ErrOTPExpired      = errors.New("code has expired, request a new one")
	ErrOTPInvalid      = errors.New("invalid code")
)

type VerificationService struct {
	db             *gorm.DB
	cache          cache.Cache
	mailer         mailer.Mailer
	expiry         time.Duration
	resendInterval time.Duration
	blocked        map[string]bool
}

func NewVerificationService(db *gorm.DB, c cache.Cache, m mailer.Mailer, cfg *config.Config) *VerificationService {
	blocked := make(map[string]bool)
	for _, d := range strings.Split(cfg.BlockedMailDomains, ",") {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			blocked[d] = true
		}
	}
	return &VerificationService{
		db:             db,
		cache:          c,
		mailer:         m,
		expiry:         cfg.OTPExpiry,
		resendInterval: cfg.OTPResendInterval,
		blocked:        blocked,
	}
}

func otpThrottleKey(userID uuid.UUID) string {
	return "lynk:otp:" + userID.String()
}

// SendOTP mails a fresh 6 digit code to the user. Only one code can be sent
// per resend interval.
func (s *VerificationService) SendOTP(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return time.Time{}, ErrUserNotFound
	}
	if user.EmailVerified {
		return time.Time{}, ErrAlreadyVerified
	}
	if at := strings.LastIndex(user.Email, "@"); at >= 0 && s.blocked[strings.ToLower(user.Email[at+1:])] {
		return time.Time{}, ErrBlockedDomain
	}

	key := otpThrottleKey(userID)
	ok, err := s.cache.SetNX(ctx, key, "1", s.resendInterval)
	if err != nil {
		return time.Time{}, fmt.Errorf("otp throttle: %w", err)
	}
	if !ok {
		return time.Time{}, ErrOTPThrottled
	}

	code, err := generateOTP()
	if err != nil {
		_ = s.cache.Del(ctx, key)
		return time.Time{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		_ = s.cache.Del(ctx, key)
		return time.Time{}, fmt.Errorf("failed to hash otp: %w", err)
	}

	expiresAt := time.Now().Add(s.expiry)
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"otp_hash":       string(hash),
		"otp_expires_at": expiresAt,
	}).Error; err != nil {
		_ = s.cache.Del(ctx, key)
		return time.Time{}, fmt.Errorf("failed to store otp: %w", err)
	}

	body := fmt.Sprintf("Your Lynk verification code is: %s\nIt expires in %s.", code, s.expiry)
	if err := s.mailer.Send(ctx, user.Email, "Email Verification OTP", body); err != nil {
		_ = s.cache.Del(ctx, key)
		slog.Error("otp mail failed", "user_id", userID.String(), "error", err)
		return time.Time{}, fmt.Errorf("failed to send otp: %w", err)
	}
	return expiresAt, nil
}

// VerifyOTP checks the code and marks the user verified.
func (s *VerificationService) VerifyOTP(ctx context.Context, userID uuid.UUID, code string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	if user.OTPHash == "" || user.OTPExpiresAt == nil {
		return ErrOTPMissing
	}
	if time.Now().After(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.OTPHash), []byte(strings.TrimSpace(code))); err != nil {
		return ErrOTPInvalid
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND otp_hash = ?", userID, user.OTPHash).
		Updates(map[string]interface{}{
			"email_verified": true,
			"verified":       true,
			"otp_hash":       "",
			"otp_expires_at": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to verify user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOTPMissing
	}
	_ = s.cache.Del(ctx, otpThrottleKey(userID))
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
