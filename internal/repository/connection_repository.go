package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConnectionRepository is the gorm implementation of matching.Store. The
// database must be opened with TranslateError so unique violations surface
// as gorm.ErrDuplicatedKey.
type ConnectionRepository struct {
	db *gorm.DB
}

var _ matching.Store = (*ConnectionRepository)(nil)

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Transaction(ctx context.Context, fn func(tx matching.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ConnectionRepository{db: tx})
	})
}

func (r *ConnectionRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ConnectionRepository) Counters(ctx context.Context, userID uuid.UUID) (matching.Counters, error) {
	var c matching.Counters
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("day_likes_count", "special_like_count").
		Where("id = ?", userID).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, fmt.Errorf("user: %w", matching.ErrNotFound)
	}
	return c, err
}

func (r *ConnectionRepository) IncrementCounter(ctx context.Context, userID uuid.UUID, counter matching.Counter, bound int) (bool, error) {
	switch counter {
	case matching.CounterDayLikes, matching.CounterSpecialLikes:
	default:
		return false, fmt.Errorf("unknown counter %q", counter)
	}
	col := string(counter)
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND "+col+" < ?", userID, bound).
		UpdateColumn(col, gorm.Expr(col+" + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ConnectionRepository) FindEdge(ctx context.Context, a, b uuid.UUID) (*models.ConnectionRequest, error) {
	var edge models.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND slot = ?", models.PairKey(a, b), models.SlotPrimary).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("connection request: %w", matching.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *ConnectionRepository) FindEdgeByID(ctx context.Context, id uuid.UUID) (*models.ConnectionRequest, error) {
	var edge models.ConnectionRequest
	err := r.db.WithContext(ctx).First(&edge, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("connection request: %w", matching.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *ConnectionRepository) PairEdges(ctx context.Context, a, b uuid.UUID) ([]models.ConnectionRequest, error) {
	var edges []models.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", models.PairKey(a, b)).
		Order("slot").
		Find(&edges).Error
	return edges, err
}

func (r *ConnectionRepository) CreateEdge(ctx context.Context, edge *models.ConnectionRequest) error {
	err := r.db.WithContext(ctx).Create(edge).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return matching.ErrDuplicateEdge
	}
	return err
}

func (r *ConnectionRepository) UpdateEdge(ctx context.Context, id uuid.UUID, guard, changes map[string]interface{}) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ConnectionRequest{}).Where("id = ?", id)
	if len(guard) > 0 {
		query = query.Where(guard)
	}
	result := query.Updates(changes)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ConnectionRepository) PendingReminders(ctx context.Context, recipient uuid.UUID) ([]models.ConnectionRequest, error) {
	var edges []models.ConnectionRequest
	err := r.db.WithContext(ctx).
		Preload("Liker").
		Where(map[string]interface{}{
			"liked_id":          recipient,
			"saved":             true,
			"reminder_sent":     true,
			"reminder_reviewed": false,
			"status":            models.StatusPendingInterested,
		}).
		Order("created_at ASC").
		Find(&edges).Error
	return edges, err
}

func (r *ConnectionRepository) AddBlock(ctx context.Context, blocker, blocked uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Block{BlockerID: blocker, BlockedID: blocked}).Error
}

func (r *ConnectionRepository) UserIDsWithLikes(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id > ? AND day_likes_count > 0", after).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ConnectionRepository) ResetDayLikes(ctx context.Context, ids []uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ? AND day_likes_count > 0", ids).
		UpdateColumn("day_likes_count", 0)
	return result.RowsAffected, result.Error
}

func (r *ConnectionRepository) UserIDsAtDailyCap(ctx context.Context, limit int, after uuid.UUID, batch int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id > ? AND day_likes_count = ?", after, limit).
		Order("id").
		Limit(batch).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ConnectionRepository) DecayDayLikes(ctx context.Context, ids []uuid.UUID, limit int) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ? AND day_likes_count = ?", ids, limit).
		UpdateColumn("day_likes_count", gorm.Expr("day_likes_count - 1"))
	return result.RowsAffected, result.Error
}

func (r *ConnectionRepository) LoadCheckpoint(ctx context.Context, runKey string) (*models.JobCheckpoint, error) {
	var cp models.JobCheckpoint
	err := r.db.WithContext(ctx).First(&cp, "run_key = ?", runKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *ConnectionRepository) SaveCheckpoint(ctx context.Context, cp *models.JobCheckpoint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(cp).Error
}
