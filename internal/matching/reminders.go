package matching

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

// SendReminder nudges target about the special like actor sent them. A
// reminder can be sent once per request.
func (e *Engine) SendReminder(ctx context.Context, actor, target uuid.UUID) (*models.ConnectionRequest, error) {
	if err := e.checkPair(ctx, actor, target); err != nil {
		return nil, err
	}

	edge, err := e.store.FindEdge(ctx, actor, target)
	if err != nil {
		return nil, err
	}
	if edge.LikerID != actor || !edge.Saved || edge.Status != models.StatusPendingInterested {
		return nil, fmt.Errorf("saved request: %w", ErrNotFound)
	}
	if err := e.remind(ctx, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

func (e *Engine) remind(ctx context.Context, edge *models.ConnectionRequest) error {
	if edge.ReminderSent {
		return ErrAlreadySent
	}
	guard := map[string]interface{}{
		"reminder_sent": false,
		"status":        models.StatusPendingInterested,
	}
	ok, err := e.store.UpdateEdge(ctx, edge.ID, guard, map[string]interface{}{"reminder_sent": true})
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadySent
	}
	edge.ReminderSent = true
	return nil
}

// ListPendingReminders returns the reminded special likes that recipient has
// not reviewed yet, oldest first.
func (e *Engine) ListPendingReminders(ctx context.Context, recipient uuid.UUID) ([]models.ConnectionRequest, error) {
	return e.store.PendingReminders(ctx, recipient)
}

// MarkReviewed acknowledges a reminder without deciding on the request.
// Only the recipient may acknowledge it.
func (e *Engine) MarkReviewed(ctx context.Context, actor, requestID uuid.UUID) (*models.ConnectionRequest, error) {
	edge, err := e.store.FindEdgeByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if edge.LikedID != actor {
		return nil, fmt.Errorf("reminder: %w", ErrNotFound)
	}

	guard := map[string]interface{}{
		"saved":             true,
		"reminder_sent":     true,
		"reminder_reviewed": false,
		"status":            models.StatusPendingInterested,
	}
	ok, err := e.store.UpdateEdge(ctx, edge.ID, guard, map[string]interface{}{"reminder_reviewed": true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("reminder: %w", ErrNotFound)
	}
	edge.ReminderReviewed = true
	return edge, nil
}
