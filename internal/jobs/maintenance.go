package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
)

// QuotaLockKey is shared by both quota jobs so they never overlap, including
// across instances when the cache is Redis.
const QuotaLockKey = "lynk:jobs:quota"

var ErrJobBusy = errors.New("another quota job is running")

// QuotaJobs is implemented by *matching.Engine.
type QuotaJobs interface {
	ResetDailyQuota(ctx context.Context, runKey string) (*matching.JobReport, error)
	DecayQuotaAtCapacity(ctx context.Context, runKey string) (*matching.JobReport, error)
}

// Schedule holds the hours the quota jobs run at.
type Schedule struct {
	ResetHour  int
	DecayStart int
	DecayEnd   int
}

// DecayHours lists every hour in [DecayStart, DecayEnd] except ResetHour.
func (s Schedule) DecayHours() AtHours {
	var hours AtHours
	for h := s.DecayStart; h <= s.DecayEnd; h++ {
		if h != s.ResetHour && h >= 0 && h < 24 {
			hours = append(hours, h)
		}
	}
	return hours
}

// Maintenance runs the quota jobs under a single active-job guard.
type Maintenance struct {
	quota    QuotaJobs
	lock     cache.Cache
	lockTTL  time.Duration
	lockWait time.Duration
	poll     time.Duration
	now      func() time.Time
}

func NewMaintenance(quota QuotaJobs, lock cache.Cache, lockTTL time.Duration) *Maintenance {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &Maintenance{
		quota:    quota,
		lock:     lock,
		lockTTL:  lockTTL,
		lockWait: 2 * time.Minute,
		poll:     500 * time.Millisecond,
		now:      time.Now,
	}
}

// ResetDailyQuota runs the daily reset keyed by the current date.
func (m *Maintenance) ResetDailyQuota(ctx context.Context) error {
	runKey := "reset:" + m.now().Format("2006-01-02")
	return m.guarded(ctx, matching.JobResetDailyQuota, func(ctx context.Context) error {
		_, err := m.quota.ResetDailyQuota(ctx, runKey)
		return err
	})
}

// DecayQuota runs the hourly decay keyed by the current hour.
func (m *Maintenance) DecayQuota(ctx context.Context) error {
	runKey := "decay:" + m.now().Format("2006-01-02T15")
	return m.guarded(ctx, matching.JobDecayQuota, func(ctx context.Context) error {
		_, err := m.quota.DecayQuotaAtCapacity(ctx, runKey)
		return err
	})
}

func (m *Maintenance) guarded(ctx context.Context, job string, fn func(ctx context.Context) error) error {
	lock, err := m.acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", job, err)
	}
	defer lock.Unlock()

	ctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.keepAlive(ctx, cancel, job, lock)
	}()
	err = fn(ctx)
	cancel(nil)
	<-done

	if err != nil {
		return fmt.Errorf("%s: %w", job, err)
	}
	return nil
}

// keepAlive extends the lock every third of its ttl until ctx ends. Failing
// to extend it cancels the job; the next run resumes from its checkpoint.
func (m *Maintenance) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, job string, lock *cache.Lock) {
	ticker := time.NewTicker(m.lockTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Extend(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("quota job lost its lock", "action", job, "error", err)
				cancel(fmt.Errorf("lock lost: %w", err))
				return
			}
		}
	}
}

func (m *Maintenance) acquire(ctx context.Context) (*cache.Lock, error) {
	deadline := time.NewTimer(m.lockWait)
	defer deadline.Stop()
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		lock, err := cache.TryLock(ctx, m.lock, QuotaLockKey, m.lockTTL)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, cache.ErrLockHeld) {
			return nil, err
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			return nil, ErrJobBusy
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Task names.
const (
	TaskResetDailyQuota = "quota_daily_reset"
	TaskDecayQuota      = "quota_hourly_decay"
)

// Register wires the quota jobs into the scheduler.
func Register(s *Scheduler, m *Maintenance, sched Schedule) {
	s.Add(TaskResetDailyQuota, AtHours{sched.ResetHour}, m.ResetDailyQuota)
	if hours := sched.DecayHours(); len(hours) > 0 {
		s.Add(TaskDecayQuota, hours, m.DecayQuota)
	} else {
		slog.Warn("quota decay disabled: no decay hours configured")
	}
}
