package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"golang.org/x/time/rate"
)

// Job names used for checkpoints and scheduling.
const (
	JobResetDailyQuota = "reset_daily_quota"
	JobDecayQuota      = "decay_quota_at_capacity"
)

// ConsumeDailyLike spends one ordinary like and returns the new count.
func (e *Engine) ConsumeDailyLike(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := e.consume(ctx, e.store, userID, CounterDayLikes, e.limits.DailyLikes); err != nil {
		return 0, err
	}
	c, err := e.store.Counters(ctx, userID)
	if err != nil {
		return 0, err
	}
	return c.DayLikesCount, nil
}

// ConsumeSpecialLike spends one special like and returns the new count.
func (e *Engine) ConsumeSpecialLike(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := e.consume(ctx, e.store, userID, CounterSpecialLikes, e.limits.SpecialLikes); err != nil {
		return 0, err
	}
	c, err := e.store.Counters(ctx, userID)
	if err != nil {
		return 0, err
	}
	return c.SpecialLikeCount, nil
}

// Counters returns the current quota counters of a user.
func (e *Engine) Counters(ctx context.Context, userID uuid.UUID) (Counters, error) {
	return e.store.Counters(ctx, userID)
}

func (e *Engine) consume(ctx context.Context, s Store, userID uuid.UUID, counter Counter, bound int) error {
	ok, err := s.IncrementCounter(ctx, userID, counter, bound)
	if err != nil {
		return fmt.Errorf("consume %s: %w", counter, err)
	}
	if ok {
		return nil
	}
	exists, err := s.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("consume %s: %w", counter, err)
	}
	if !exists {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return fmt.Errorf("%s limit of %d reached: %w", counter, bound, ErrQuotaExceeded)
}

// ResetDailyQuota zeroes day_likes_count for every user above zero. runKey
// identifies the run (one per day); a run that already finished is skipped
// and an interrupted one resumes after its last committed batch.
func (e *Engine) ResetDailyQuota(ctx context.Context, runKey string) (*JobReport, error) {
	return e.sweep(ctx, JobResetDailyQuota, runKey,
		func(after uuid.UUID) ([]uuid.UUID, error) {
			return e.store.UserIDsWithLikes(ctx, after, e.batch.Size)
		},
		func(ids []uuid.UUID) (int64, error) {
			return e.store.ResetDayLikes(ctx, ids)
		},
	)
}

// DecayQuotaAtCapacity releases one daily like for every user sitting exactly
// at the cap. Users below the cap are never selected, so re-running it is a
// no-op for them.
func (e *Engine) DecayQuotaAtCapacity(ctx context.Context, runKey string) (*JobReport, error) {
	return e.sweep(ctx, JobDecayQuota, runKey,
		func(after uuid.UUID) ([]uuid.UUID, error) {
			return e.store.UserIDsAtDailyCap(ctx, e.limits.DailyLikes, after, e.batch.Size)
		},
		func(ids []uuid.UUID) (int64, error) {
			return e.store.DecayDayLikes(ctx, ids, e.limits.DailyLikes)
		},
	)
}

func (e *Engine) sweep(
	ctx context.Context,
	job, runKey string,
	scan func(after uuid.UUID) ([]uuid.UUID, error),
	apply func(ids []uuid.UUID) (int64, error),
) (*JobReport, error) {
	report := &JobReport{RunKey: runKey}

	cp, err := e.store.LoadCheckpoint(ctx, runKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp == nil {
		cp = &models.JobCheckpoint{RunKey: runKey, Job: job}
	}
	if cp.DoneAt != nil {
		report.Skipped = true
		return report, nil
	}

	cursor := uuid.Nil
	if cp.Cursor != "" {
		if cursor, err = uuid.Parse(cp.Cursor); err != nil {
			return nil, fmt.Errorf("invalid checkpoint cursor %q: %w", cp.Cursor, err)
		}
		report.Resumed = true
	}

	limit := rate.Inf
	if e.batch.Pace > 0 {
		limit = rate.Every(e.batch.Pace)
	}
	limiter := rate.NewLimiter(limit, 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}

		ids, err := scan(cursor)
		if err != nil {
			return report, fmt.Errorf("scan users after %s: %w", cursor, err)
		}
		if len(ids) == 0 {
			break
		}

		affected, err := apply(ids)
		if err != nil {
			return report, fmt.Errorf("apply batch after %s: %w", cursor, err)
		}

		cursor = ids[len(ids)-1]
		report.Batches++
		report.Processed += int64(len(ids))
		report.Affected += affected

		cp.Cursor = cursor.String()
		cp.Processed += int64(len(ids))
		cp.Affected += affected
		if err := e.store.SaveCheckpoint(ctx, cp); err != nil {
			return report, fmt.Errorf("save checkpoint: %w", err)
		}

		if len(ids) < e.batch.Size {
			break
		}
	}

	now := time.Now()
	cp.DoneAt = &now
	if err := e.store.SaveCheckpoint(ctx, cp); err != nil {
		return report, fmt.Errorf("save checkpoint: %w", err)
	}

	slog.Info("quota job finished",
		"job", job,
		"run_key", runKey,
		"batches", report.Batches,
		"processed", report.Processed,
		"affected", report.Affected,
		"resumed", report.Resumed,
	)
	return report, nil
}
