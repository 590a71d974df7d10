package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/mailer"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"gorm.io/gorm"
)

const (
	NotificationMatch    = "match"
	NotificationReminder = "reminder"

	mailTimeout = 15 * time.Second
)

// NotificationEvent is the payload of a "notification" socket frame.
type NotificationEvent struct {
	Kind      string    `json:"kind"`
	RequestID uuid.UUID `json:"requestId"`
	From      uuid.UUID `json:"from"`
	FromName  string    `json:"fromName"`
}

// NotificationService tells users about matches and reminders. Delivery is
// best effort: failures are logged and never fail the action that caused
// them.
type NotificationService struct {
	db       *gorm.DB
	notifier Notifier
	mailer   mailer.Mailer
	mails    sync.WaitGroup
}

func NewNotificationService(db *gorm.DB, notifier Notifier, m mailer.Mailer) *NotificationService {
	return &NotificationService{db: db, notifier: notifier, mailer: m}
}

// Matched pushes a match event to both users of an accepted edge.
func (s *NotificationService) Matched(ctx context.Context, edge *models.ConnectionRequest) {
	if s.notifier == nil || edge == nil || edge.Status != models.StatusAccepted {
		return
	}
	users, err := s.users(ctx, edge.LikerID, edge.LikedID)
	if err != nil {
		slog.Error("match notification lookup failed", "request_id", edge.ID.String(), "error", err)
		return
	}
	for _, pair := range [][2]uuid.UUID{{edge.LikerID, edge.LikedID}, {edge.LikedID, edge.LikerID}} {
		to, from := pair[0], pair[1]
		s.notifier.Notify(to, "notification", NotificationEvent{
			Kind:      NotificationMatch,
			RequestID: edge.ID,
			From:      from,
			FromName:  users[from].FirstName,
		})
	}
}

// Reminded pushes a reminder to the recipient of a saved edge and mails them.
func (s *NotificationService) Reminded(ctx context.Context, edge *models.ConnectionRequest) {
	if edge == nil {
		return
	}
	users, err := s.users(ctx, edge.LikerID, edge.LikedID)
	if err != nil {
		slog.Error("reminder notification lookup failed", "request_id", edge.ID.String(), "error", err)
		return
	}
	liker, liked := users[edge.LikerID], users[edge.LikedID]

	if s.notifier != nil {
		s.notifier.Notify(edge.LikedID, "notification", NotificationEvent{
			Kind:      NotificationReminder,
			RequestID: edge.ID,
			From:      edge.LikerID,
			FromName:  liker.FirstName,
		})
	}

	if s.mailer == nil || liked.Email == "" {
		return
	}
	subject := fmt.Sprintf("%s is still waiting to hear from you", liker.FirstName)
	body := fmt.Sprintf("Hi %s,\n\n%s sent you a special like and would love a reply.\nOpen Lynk to review it.\n",
		liked.FirstName, liker.FirstName)
	base := context.WithoutCancel(ctx)
	requestID, to := edge.ID.String(), edge.LikedID.String()

	s.mails.Add(1)
	go func() {
		defer s.mails.Done()
		mctx, cancel := context.WithTimeout(base, mailTimeout)
		defer cancel()
		if err := s.mailer.Send(mctx, liked.Email, subject, body); err != nil {
			slog.Error("reminder mail failed", "request_id", requestID, "user_id", to, "error", err)
		}
	}()
}

// Wait blocks until queued reminder mails have been handed to the mailer.
func (s *NotificationService) Wait() {
	s.mails.Wait()
}

func (s *NotificationService) users(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.User, error) {
	var list []models.User
	if err := s.db.WithContext(ctx).Select("id", "first_name", "email").Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.User, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

// NotifyOutcome fans out the side effects of a like action.
func (s *NotificationService) NotifyOutcome(ctx context.Context, res *matching.Result) {
	if res != nil && res.Outcome == matching.OutcomeMatched {
		s.Matched(ctx, res.Edge)
	}
}
