package matching

import (
	"context"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

// Counter columns that the store may increment.
type Counter string

const (
	CounterDayLikes     Counter = "day_likes_count"
	CounterSpecialLikes Counter = "special_like_count"
)

// Store is the persistence the engine needs. Implementations must enforce
// uniqueness of (pair, slot) and return ErrDuplicateEdge on a violation, and
// must return ErrNotFound for missing rows.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	Counters(ctx context.Context, userID uuid.UUID) (Counters, error)
	// IncrementCounter adds one to the counter when it is below bound, in a
	// single statement. It reports false when the bound rejected the update
	// or the user does not exist.
	IncrementCounter(ctx context.Context, userID uuid.UUID, counter Counter, bound int) (bool, error)

	FindEdge(ctx context.Context, a, b uuid.UUID) (*models.ConnectionRequest, error)
	FindEdgeByID(ctx context.Context, id uuid.UUID) (*models.ConnectionRequest, error)
	PairEdges(ctx context.Context, a, b uuid.UUID) ([]models.ConnectionRequest, error)
	CreateEdge(ctx context.Context, edge *models.ConnectionRequest) error
	// UpdateEdge applies changes when the row still matches guard. It reports
	// whether a row was updated.
	UpdateEdge(ctx context.Context, id uuid.UUID, guard, changes map[string]interface{}) (bool, error)
	PendingReminders(ctx context.Context, recipient uuid.UUID) ([]models.ConnectionRequest, error)
	AddBlock(ctx context.Context, blocker, blocked uuid.UUID) error

	UserIDsWithLikes(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	ResetDayLikes(ctx context.Context, ids []uuid.UUID) (int64, error)
	UserIDsAtDailyCap(ctx context.Context, limit int, after uuid.UUID, batch int) ([]uuid.UUID, error)
	DecayDayLikes(ctx context.Context, ids []uuid.UUID, limit int) (int64, error)
	LoadCheckpoint(ctx context.Context, runKey string) (*models.JobCheckpoint, error)
	SaveCheckpoint(ctx context.Context, cp *models.JobCheckpoint) error
}
