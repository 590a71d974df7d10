package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"gorm.io/gorm"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 50
)

// UserService serves the read-side lists around the matching engine.
type UserService struct {
	db     *gorm.DB
	engine *matching.Engine
}

func NewUserService(db *gorm.DB, engine *matching.Engine) *UserService {
	return &UserService{db: db, engine: engine}
}

// Feed lists users the viewer has no edge with in either direction, skipping
// blocked pairs.
func (s *UserService) Feed(ctx context.Context, viewerID uuid.UUID, page, limit int) (*dto.FeedResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	db := s.db.WithContext(ctx)
	outgoing := db.Model(&models.ConnectionRequest{}).Select("liked_id").Where("liker_id = ?", viewerID)
	incoming := db.Model(&models.ConnectionRequest{}).Select("liker_id").Where("liked_id = ?", viewerID)
	blockedBy := db.Model(&models.Block{}).Select("blocker_id").Where("blocked_id = ?", viewerID)
	blocking := db.Model(&models.Block{}).Select("blocked_id").Where("blocker_id = ?", viewerID)

	var users []models.User
	err := db.
		Where("id <> ?", viewerID).
		Where("id NOT IN (?)", outgoing).
		Where("id NOT IN (?)", incoming).
		Where("id NOT IN (?)", blockedBy).
		Where("id NOT IN (?)", blocking).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	resp := &dto.FeedResponse{Users: make([]dto.PublicProfile, 0, len(users)), Page: page, Limit: limit}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewPublicProfile(&users[i]))
	}
	return resp, nil
}

// Connections lists the counterpart of every accepted edge.
func (s *UserService) Connections(ctx context.Context, userID uuid.UUID) ([]dto.PublicProfile, error) {
	var edges []models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Preload("Liker").Preload("Liked").
		Where("status = ? AND (liker_id = ? OR liked_id = ?)", models.StatusAccepted, userID, userID).
		Order("updated_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(edges))
	profiles := make([]dto.PublicProfile, 0, len(edges))
	for i := range edges {
		other := otherUser(&edges[i], userID)
		if other == nil || seen[other.ID] {
			continue
		}
		seen[other.ID] = true
		profiles = append(profiles, dto.NewPublicProfile(other))
	}
	return profiles, nil
}

// RequestsReceived lists pending-interested edges pointing at the user.
func (s *UserService) RequestsReceived(ctx context.Context, userID uuid.UUID) ([]dto.RequestView, error) {
	var edges []models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Preload("Liker").
		Where("liked_id = ? AND status = ?", userID, models.StatusPendingInterested).
		Order("saved DESC, created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return views(edges, userID), nil
}

// Saved lists the special likes the user has sent.
func (s *UserService) Saved(ctx context.Context, userID uuid.UUID) ([]dto.RequestView, error) {
	var edges []models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Preload("Liked").
		Where("liker_id = ? AND saved = ?", userID, true).
		Order("created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return views(edges, userID), nil
}

func (s *UserService) Reminders(ctx context.Context, userID uuid.UUID) ([]dto.RequestView, error) {
	edges, err := s.engine.ListPendingReminders(ctx, userID)
	if err != nil {
		return nil, err
	}
	return views(edges, userID), nil
}

func (s *UserService) Quota(ctx context.Context, userID uuid.UUID) (*dto.QuotaResponse, error) {
	counters, err := s.engine.Counters(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := s.engine.Limits()
	return &dto.QuotaResponse{
		DailyLikesUsed:        counters.DayLikesCount,
		DailyLikesRemaining:   max(limits.DailyLikes-counters.DayLikesCount, 0),
		SpecialLikesUsed:      counters.SpecialLikeCount,
		SpecialLikesRemaining: max(limits.SpecialLikes-counters.SpecialLikeCount, 0),
	}, nil
}

func otherUser(edge *models.ConnectionRequest, userID uuid.UUID) *models.User {
	if edge.LikerID == userID {
		return edge.Liked
	}
	return edge.Liker
}

func views(edges []models.ConnectionRequest, userID uuid.UUID) []dto.RequestView {
	out := make([]dto.RequestView, 0, len(edges))
	for i := range edges {
		out = append(out, dto.NewRequestView(&edges[i], otherUser(&edges[i], userID)))
	}
	return out
}
