package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   time.Hour,
		OTPExpiry:          2 * time.Minute,
		OTPResendInterval:  time.Minute,
		BlockedMailDomains: "mailinator.com, tempmail.com",
		RequireVerified:    true,
	}
}

func testEngine(db *gorm.DB) *matching.Engine {
	return matching.NewEngine(repository.NewConnectionRepository(db), matching.DefaultLimits(), matching.BatchOptions{Size: 10})
}

func addEdge(t *testing.T, db *gorm.DB, liker, liked uuid.UUID, status string) *models.ConnectionRequest {
	t.Helper()
	edge := &models.ConnectionRequest{
		LikerID: liker,
		LikedID: liked,
		PairKey: models.PairKey(liker, liked),
		Status:  status,
	}
	require.NoError(t, db.Create(edge).Error)
	return edge
}

func addBlock(t *testing.T, db *gorm.DB, blocker, blocked uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Create(&models.Block{BlockerID: blocker, BlockedID: blocked}).Error)
}

type notification struct {
	UserID uuid.UUID
	Kind   string
	Data   interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(userID uuid.UUID, kind string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{UserID: userID, Kind: kind, Data: data})
}

func (r *recordingNotifier) For(userID uuid.UUID) []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
