package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

// createAttempts bounds how often an action is re-resolved after losing a
// create race on the pair's unique key.
const createAttempts = 2

// Engine resolves like, special-like, review and block actions between two
// users. It holds no state besides its store and limits, so a single
// instance is shared by all requests.
type Engine struct {
	store  Store
	limits Limits
	batch  BatchOptions
}

func NewEngine(store Store, limits Limits, batch BatchOptions) *Engine {
	if limits.DailyLikes <= 0 {
		limits.DailyLikes = DefaultLimits().DailyLikes
	}
	if limits.SpecialLikes <= 0 {
		limits.SpecialLikes = DefaultLimits().SpecialLikes
	}
	if batch.Size <= 0 {
		batch.Size = DefaultBatchOptions().Size
	}
	return &Engine{store: store, limits: limits, batch: batch}
}

func (e *Engine) Limits() Limits {
	return e.limits
}

func (e *Engine) checkPair(ctx context.Context, actor, target uuid.UUID) error {
	if actor == target {
		return ErrInvalidSelfTarget
	}
	ok, err := e.store.UserExists(ctx, target)
	if err != nil {
		return fmt.Errorf("lookup target: %w", err)
	}
	if !ok {
		return fmt.Errorf("target user: %w", ErrNotFound)
	}
	return nil
}

// SendLike records an interested or ignored action from actor to target.
func (e *Engine) SendLike(ctx context.Context, actor, target uuid.UUID, kind Kind) (*Result, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if err := e.checkPair(ctx, actor, target); err != nil {
		return nil, err
	}

	var res *Result
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		err = e.store.Transaction(ctx, func(tx Store) error {
			var txErr error
			res, txErr = e.resolveLike(ctx, tx, actor, target, kind)
			return txErr
		})
		if !errors.Is(err, ErrDuplicateEdge) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) resolveLike(ctx context.Context, tx Store, actor, target uuid.UUID, kind Kind) (*Result, error) {
	edge, err := tx.FindEdge(ctx, actor, target)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if edge == nil {
		res := &Result{Outcome: OutcomePassed}
		status := models.StatusPendingIgnored
		if kind == KindInterested {
			if err := e.consume(ctx, tx, actor, CounterDayLikes, e.limits.DailyLikes); err != nil {
				return nil, err
			}
			res.Outcome = OutcomeRequested
			status = models.StatusPendingInterested
		}
		edge = &models.ConnectionRequest{
			LikerID: actor,
			LikedID: target,
			PairKey: models.PairKey(actor, target),
			Slot:    models.SlotPrimary,
			Status:  status,
		}
		if err := tx.CreateEdge(ctx, edge); err != nil {
			return nil, err
		}
		res.Edge = edge
		return e.withCounters(ctx, tx, actor, res)
	}

	if edge.Status == models.StatusBlocked {
		return nil, ErrBlocked
	}
	if edge.LikerID == actor {
		return nil, ErrDuplicateEdge
	}

	res := &Result{Edge: edge}
	switch edge.Status {
	case models.StatusPendingInterested:
		next := models.StatusRejected
		res.Outcome = OutcomeDeclined
		if kind == KindInterested {
			if err := e.consume(ctx, tx, actor, CounterDayLikes, e.limits.DailyLikes); err != nil {
				return nil, err
			}
			next = models.StatusAccepted
			res.Outcome = OutcomeMatched
		}
		if err := e.transition(ctx, tx, edge, models.StatusPendingInterested, map[string]interface{}{"status": next}); err != nil {
			return nil, err
		}
		edge.Status = next
	case models.StatusPendingIgnored:
		// The other side already passed. Liking still spends a unit.
		if kind == KindInterested {
			if err := e.consume(ctx, tx, actor, CounterDayLikes, e.limits.DailyLikes); err != nil {
				return nil, err
			}
		}
		res.Outcome = OutcomeAlreadyIgnored
	default:
		return nil, ErrInvalidState
	}
	return e.withCounters(ctx, tx, actor, res)
}

// Review lets the recipient of a pending interested request accept or
// reject it.
func (e *Engine) Review(ctx context.Context, actor, requestID uuid.UUID, decision Decision) (*models.ConnectionRequest, error) {
	if _, err := ParseDecision(string(decision)); err != nil {
		return nil, err
	}

	edge, err := e.store.FindEdgeByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if edge.LikedID != actor || edge.Status != models.StatusPendingInterested {
		return nil, fmt.Errorf("pending request: %w", ErrNotFound)
	}

	changes := map[string]interface{}{"status": string(decision)}
	if edge.Saved && edge.ReminderSent {
		changes["reminder_reviewed"] = true
		edge.ReminderReviewed = true
	}
	ok, err := e.store.UpdateEdge(ctx, edge.ID, map[string]interface{}{"status": models.StatusPendingInterested}, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("pending request: %w", ErrNotFound)
	}
	edge.Status = string(decision)
	return edge, nil
}

// SendSpecialLike spends one special like from actor on target.
func (e *Engine) SendSpecialLike(ctx context.Context, actor, target uuid.UUID) (*Result, error) {
	if err := e.checkPair(ctx, actor, target); err != nil {
		return nil, err
	}

	var res *Result
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		err = e.store.Transaction(ctx, func(tx Store) error {
			var txErr error
			res, txErr = e.resolveSpecialLike(ctx, tx, actor, target)
			return txErr
		})
		if !errors.Is(err, ErrDuplicateEdge) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) resolveSpecialLike(ctx context.Context, tx Store, actor, target uuid.UUID) (*Result, error) {
	edge, err := tx.FindEdge(ctx, actor, target)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if edge != nil {
		if edge.Status == models.StatusBlocked {
			return nil, ErrBlocked
		}
		if edge.Status == models.StatusAccepted || edge.Status == models.StatusRejected {
			return nil, ErrInvalidState
		}
		if edge.LikerID == actor && edge.Saved {
			return nil, ErrDuplicateEdge
		}
		if edge.LikerID != actor && edge.Saved && edge.Status != models.StatusPendingInterested {
			return nil, ErrInvalidState
		}
	}

	if err := e.consume(ctx, tx, actor, CounterSpecialLikes, e.limits.SpecialLikes); err != nil {
		return nil, err
	}

	if edge == nil {
		edge = &models.ConnectionRequest{
			LikerID: actor,
			LikedID: target,
			PairKey: models.PairKey(actor, target),
			Slot:    models.SlotPrimary,
			Status:  models.StatusPendingInterested,
			Saved:   true,
		}
		if err := tx.CreateEdge(ctx, edge); err != nil {
			return nil, err
		}
		return e.withCounters(ctx, tx, actor, &Result{Outcome: OutcomeSaved, Edge: edge})
	}

	// actor already liked or passed on target: promote to a special like.
	if edge.LikerID == actor {
		changes := map[string]interface{}{"status": models.StatusPendingInterested, "saved": true}
		if err := e.transition(ctx, tx, edge, edge.Status, changes); err != nil {
			return nil, err
		}
		edge.Status = models.StatusPendingInterested
		edge.Saved = true
		return e.withCounters(ctx, tx, actor, &Result{Outcome: OutcomeSaved, Edge: edge})
	}

	switch {
	case edge.Status == models.StatusPendingInterested && edge.Saved:
		// Both sides used a special like: mirror the edge and accept both.
		mirror := &models.ConnectionRequest{
			LikerID: actor,
			LikedID: target,
			PairKey: edge.PairKey,
			Slot:    models.SlotReciprocal,
			Status:  models.StatusAccepted,
			Saved:   true,
		}
		if err := tx.CreateEdge(ctx, mirror); err != nil {
			return nil, err
		}
		if err := e.transition(ctx, tx, edge, models.StatusPendingInterested, map[string]interface{}{"status": models.StatusAccepted}); err != nil {
			return nil, err
		}
		edge.Status = models.StatusAccepted
		return e.withCounters(ctx, tx, actor, &Result{Outcome: OutcomeMatched, Edge: mirror})
	case edge.Status == models.StatusPendingInterested:
		changes := map[string]interface{}{"status": models.StatusAccepted, "saved": true}
		if err := e.transition(ctx, tx, edge, models.StatusPendingInterested, changes); err != nil {
			return nil, err
		}
		edge.Status = models.StatusAccepted
		edge.Saved = true
		return e.withCounters(ctx, tx, actor, &Result{Outcome: OutcomeMatched, Edge: edge})
	default:
		changes := map[string]interface{}{"status": models.StatusRejected, "saved": true}
		if err := e.transition(ctx, tx, edge, models.StatusPendingIgnored, changes); err != nil {
			return nil, err
		}
		edge.Status = models.StatusRejected
		edge.Saved = true
		return e.withCounters(ctx, tx, actor, &Result{Outcome: OutcomeRejected, Edge: edge})
	}
}

// Block marks every edge of the pair as blocked and records the block for
// actor. Blocking an already blocked pair succeeds without changes.
func (e *Engine) Block(ctx context.Context, actor, target uuid.UUID) error {
	if err := e.checkPair(ctx, actor, target); err != nil {
		return err
	}

	return e.store.Transaction(ctx, func(tx Store) error {
		edges, err := tx.PairEdges(ctx, actor, target)
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			return fmt.Errorf("connection request: %w", ErrNotFound)
		}
		for _, edge := range edges {
			if edge.Status == models.StatusBlocked {
				continue
			}
			if _, err := tx.UpdateEdge(ctx, edge.ID, nil, map[string]interface{}{"status": models.StatusBlocked}); err != nil {
				return err
			}
		}
		return tx.AddBlock(ctx, actor, target)
	})
}

// GetStatus reports the pair state as seen by actor.
func (e *Engine) GetStatus(ctx context.Context, actor, target uuid.UUID) (*StatusView, error) {
	if err := e.checkPair(ctx, actor, target); err != nil {
		return nil, err
	}

	edge, err := e.store.FindEdge(ctx, actor, target)
	if errors.Is(err, ErrNotFound) {
		return &StatusView{State: StateNone}, nil
	}
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		State:            edge.Status,
		Direction:        DirectionIncoming,
		RequestID:        &edge.ID,
		Saved:            edge.Saved,
		ReminderSent:     edge.ReminderSent,
		ReminderReviewed: edge.ReminderReviewed,
		UpdatedAt:        &edge.UpdatedAt,
	}
	if edge.LikerID == actor {
		view.Direction = DirectionOutgoing
	}
	return view, nil
}

// transition applies changes to edge only if its status is still from.
func (e *Engine) transition(ctx context.Context, tx Store, edge *models.ConnectionRequest, from string, changes map[string]interface{}) error {
	ok, err := tx.UpdateEdge(ctx, edge.ID, map[string]interface{}{"status": from}, changes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	return nil
}

func (e *Engine) withCounters(ctx context.Context, tx Store, actor uuid.UUID, res *Result) (*Result, error) {
	c, err := tx.Counters(ctx, actor)
	if err != nil {
		return nil, err
	}
	res.DayLikesCount = c.DayLikesCount
	res.SpecialLikeCount = c.SpecialLikeCount
	return res, nil
}
