package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/database"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database and migrates every
// model. The pool is pinned to one connection so the in-memory database
// survives for the life of the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=1", name, uuid.NewString()[:8])

	db, err := database.Open("sqlite", dsn, logger.Silent)
	require.NoError(t, err, "SetupTestDB: Open")

	sqlDB, err := db.DB()
	require.NoError(t, err, "SetupTestDB: DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "SetupTestDB: Migrate")
	return db
}

// SetupTestCache returns in-process cache and pub/sub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	return cache.NewLocalCache(), cache.NewLocalPubSub(64)
}

// CreateUser inserts a verified user with the given first name.
func CreateUser(t *testing.T, db *gorm.DB, firstName string) *models.User {
	t.Helper()
	u := &models.User{
		ID:            uuid.New(),
		FirstName:     firstName,
		Email:         strings.ToLower(firstName) + "-" + uuid.NewString()[:8] + "@example.com",
		Password:      "x",
		Verified:      true,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(u).Error, "CreateUser")
	return u
}

// SetDayLikes forces a user's daily like counter.
func SetDayLikes(t *testing.T, db *gorm.DB, id uuid.UUID, n int) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("day_likes_count", n).Error)
}

// ReloadUser reads a user back from the database.
func ReloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return &u
}
