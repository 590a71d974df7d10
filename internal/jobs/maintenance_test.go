package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/cache"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuota struct {
	mu      sync.Mutex
	running int32
	overlap int32
	keys    []string
	delay   time.Duration
}

func (f *fakeQuota) run(runKey string) (*matching.JobReport, error) {
	if atomic.AddInt32(&f.running, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	time.Sleep(f.delay)
	atomic.AddInt32(&f.running, -1)

	f.mu.Lock()
	f.keys = append(f.keys, runKey)
	f.mu.Unlock()
	return &matching.JobReport{RunKey: runKey}, nil
}

func (f *fakeQuota) ResetDailyQuota(_ context.Context, runKey string) (*matching.JobReport, error) {
	return f.run(runKey)
}

func (f *fakeQuota) DecayQuotaAtCapacity(_ context.Context, runKey string) (*matching.JobReport, error) {
	return f.run(runKey)
}

func newTestMaintenance(q QuotaJobs, c cache.Cache) *Maintenance {
	m := NewMaintenance(q, c, time.Minute)
	m.poll = 5 * time.Millisecond
	m.now = func() time.Time { return time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC) }
	return m
}

func TestMaintenanceRunKeys(t *testing.T) {
	q := &fakeQuota{}
	m := newTestMaintenance(q, cache.NewLocalCache())

	require.NoError(t, m.ResetDailyQuota(context.Background()))
	require.NoError(t, m.DecayQuota(context.Background()))
	assert.Equal(t, []string{"reset:2026-10-19", "decay:2026-10-19T14"}, q.keys)
}

func TestMaintenanceJobsNeverOverlap(t *testing.T) {
	q := &fakeQuota{delay: 30 * time.Millisecond}
	m := newTestMaintenance(q, cache.NewLocalCache())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, m.ResetDailyQuota(context.Background())) }()
		go func() { defer wg.Done(); assert.NoError(t, m.DecayQuota(context.Background())) }()
	}
	wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&q.overlap))
	assert.Len(t, q.keys, 8)
}

func TestMaintenanceGivesUpWhenLockHeld(t *testing.T) {
	c := cache.NewLocalCache()
	lock, err := cache.TryLock(context.Background(), c, QuotaLockKey, time.Minute)
	require.NoError(t, err)
	defer lock.Unlock()

	q := &fakeQuota{}
	m := newTestMaintenance(q, c)
	m.lockWait = 20 * time.Millisecond

	err = m.DecayQuota(context.Background())
	assert.ErrorIs(t, err, ErrJobBusy)
	assert.Empty(t, q.keys)
}

func TestMaintenanceKeepsLockForLongRuns(t *testing.T) {
	// each run lasts several lock ttls
	q := &fakeQuota{delay: 150 * time.Millisecond}
	m := newTestMaintenance(q, cache.NewLocalCache())
	m.lockTTL = 40 * time.Millisecond

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); assert.NoError(t, m.DecayQuota(context.Background())) }()
	go func() { defer wg.Done(); assert.NoError(t, m.ResetDailyQuota(context.Background())) }()
	wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&q.overlap))
	assert.Len(t, q.keys, 2)
}
