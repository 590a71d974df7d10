package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/mailer"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func unverifiedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{FirstName: "New", Email: email, Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func lastCode(t *testing.T, m *mailer.LogMailer) string {
	t.Helper()
	sent := m.Sent()
	require.NotEmpty(t, sent)
	body := sent[len(sent)-1].Body
	idx := strings.Index(body, ": ")
	require.GreaterOrEqual(t, idx, 0)
	return body[idx+2 : idx+8]
}

func TestOTPRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	mail := &mailer.LogMailer{}
	svc := NewVerificationService(db, c, mail, testConfig())
	ctx := context.Background()
	u := unverifiedUser(t, db, "new@example.com")

	expiresAt, err := svc.SendOTP(ctx, u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), expiresAt, 5*time.Second)
	assert.Equal(t, "new@example.com", mail.Sent()[0].To)

	_, err = svc.SendOTP(ctx, u.ID)
	assert.ErrorIs(t, err, ErrOTPThrottled)

	code := lastCode(t, mail)
	assert.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, svc.VerifyOTP(ctx, u.ID, wrong), ErrOTPInvalid)

	require.NoError(t, svc.VerifyOTP(ctx, u.ID, code))
	reloaded := testutil.ReloadUser(t, db, u.ID)
	assert.True(t, reloaded.Verified)
	assert.True(t, reloaded.EmailVerified)
	assert.Empty(t, reloaded.OTPHash)
	assert.Nil(t, reloaded.OTPExpiresAt)

	assert.ErrorIs(t, svc.VerifyOTP(ctx, u.ID, code), ErrAlreadyVerified)
	_, err = svc.SendOTP(ctx, u.ID)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestOTPRejectsBlockedDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	mail := &mailer.LogMailer{}
	svc := NewVerificationService(db, c, mail, testConfig())
	u := unverifiedUser(t, db, "burner@Mailinator.com")

	_, err := svc.SendOTP(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrBlockedDomain)
	assert.Empty(t, mail.Sent())
}

func TestOTPExpiredAndMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	mail := &mailer.LogMailer{}
	cfg := testConfig()
	cfg.OTPExpiry = -time.Second
	svc := NewVerificationService(db, c, mail, cfg)
	ctx := context.Background()
	u := unverifiedUser(t, db, "late@example.com")

	assert.ErrorIs(t, svc.VerifyOTP(ctx, u.ID, "123456"), ErrOTPMissing)

	_, err := svc.SendOTP(ctx, u.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.VerifyOTP(ctx, u.ID, lastCode(t, mail)), ErrOTPExpired)
}
