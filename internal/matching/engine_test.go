package matching_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/repository"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEngine(t *testing.T) (*matching.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	engine := matching.NewEngine(
		repository.NewConnectionRepository(db),
		matching.DefaultLimits(),
		matching.BatchOptions{Size: 3},
	)
	return engine, db
}

func countEdges(t *testing.T, db *gorm.DB, a, b uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ConnectionRequest{}).Where("pair_key = ?", models.PairKey(a, b)).Count(&n).Error)
	return n
}

func TestSendLikeInterestedCreatesPendingEdge(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	res, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	assert.Equal(t, matching.OutcomeRequested, res.Outcome)
	assert.Equal(t, models.StatusPendingInterested, res.Edge.Status)
	assert.Equal(t, a.ID, res.Edge.LikerID)
	assert.Equal(t, b.ID, res.Edge.LikedID)
	assert.Equal(t, 1, res.DayLikesCount)
	assert.Equal(t, int64(1), countEdges(t, db, a.ID, b.ID))
	assert.Equal(t, 1, testutil.ReloadUser(t, db, a.ID).DayLikesCount)
}

func TestSendLikeIgnoredConsumesNoQuota(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	res, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindIgnored)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomePassed, res.Outcome)
	assert.Equal(t, models.StatusPendingIgnored, res.Edge.Status)
	assert.Equal(t, 0, res.DayLikesCount)
}

func TestSendLikeValidation(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")

	_, err := engine.SendLike(ctx, a.ID, a.ID, matching.KindInterested)
	assert.ErrorIs(t, err, matching.ErrInvalidSelfTarget)

	_, err = engine.SendLike(ctx, a.ID, uuid.New(), matching.KindInterested)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	_, err = engine.SendLike(ctx, a.ID, uuid.New(), matching.Kind("superlike"))
	assert.ErrorIs(t, err, matching.ErrInvalidKind)
}

func TestMutualInterestMatches(t *testing.T) {
	for _, first := range []string{"alice", "bob"} {
		t.Run(first+" first", func(t *testing.T) {
			engine, db := newEngine(t)
			ctx := context.Background()
			a := testutil.CreateUser(t, db, "Alice")
			b := testutil.CreateUser(t, db, "Bob")
			x, y := a, b
			if first == "bob" {
				x, y = b, a
			}

			_, err := engine.SendLike(ctx, x.ID, y.ID, matching.KindInterested)
			require.NoError(t, err)
			res, err := engine.SendLike(ctx, y.ID, x.ID, matching.KindInterested)
			require.NoError(t, err)

			assert.Equal(t, matching.OutcomeMatched, res.Outcome)
			assert.Equal(t, models.StatusAccepted, res.Edge.Status)
			assert.Equal(t, int64(1), countEdges(t, db, a.ID, b.ID))
			assert.Equal(t, 1, testutil.ReloadUser(t, db, a.ID).DayLikesCount)
			assert.Equal(t, 1, testutil.ReloadUser(t, db, b.ID).DayLikesCount)
		})
	}
}

func TestDeclineIncomingInterest(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	_, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	res, err := engine.SendLike(ctx, b.ID, a.ID, matching.KindIgnored)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeDeclined, res.Outcome)
	assert.Equal(t, models.StatusRejected, res.Edge.Status)
	assert.Equal(t, 0, res.DayLikesCount)
}

func TestLikeAfterBeingIgnoredStillConsumes(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	_, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindIgnored)
	require.NoError(t, err)

	res, err := engine.SendLike(ctx, b.ID, a.ID, matching.KindInterested)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeAlreadyIgnored, res.Outcome)
	assert.Equal(t, models.StatusPendingIgnored, res.Edge.Status)
	assert.Equal(t, 1, res.DayLikesCount)

	res, err = engine.SendLike(ctx, b.ID, a.ID, matching.KindIgnored)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeAlreadyIgnored, res.Outcome)
	assert.Equal(t, 1, res.DayLikesCount)
}

func TestRepeatedLikeIsDuplicate(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	_, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	_, err = engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	assert.ErrorIs(t, err, matching.ErrDuplicateEdge)
	// the failed attempt must not spend a unit
	assert.Equal(t, 1, testutil.ReloadUser(t, db, a.ID).DayLikesCount)
}

func TestNinthLikeExceedsQuota(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")

	for i := 0; i < 8; i++ {
		target := testutil.CreateUser(t, db, fmt.Sprintf("Target%d", i))
		_, err := engine.SendLike(ctx, a.ID, target.ID, matching.KindInterested)
		require.NoError(t, err, "like %d", i+1)
	}

	ninth := testutil.CreateUser(t, db, "Ninth")
	_, err := engine.SendLike(ctx, a.ID, ninth.ID, matching.KindInterested)
	assert.ErrorIs(t, err, matching.ErrQuotaExceeded)
	assert.Equal(t, int64(0), countEdges(t, db, a.ID, ninth.ID))
	assert.Equal(t, 8, testutil.ReloadUser(t, db, a.ID).DayLikesCount)

	// passing is never limited
	_, err = engine.SendLike(ctx, a.ID, ninth.ID, matching.KindIgnored)
	assert.NoError(t, err)
}

func TestConcurrentLikesNeverExceedCap(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")

	targets := make([]*models.User, 20)
	for i := range targets {
		targets[i] = testutil.CreateUser(t, db, fmt.Sprintf("Target%d", i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, exceeded := 0, 0
	for _, target := range targets {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := engine.SendLike(ctx, a.ID, id, matching.KindInterested)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, matching.ErrQuotaExceeded) {
				exceeded++
			}
		}(target.ID)
	}
	wg.Wait()

	assert.Equal(t, 8, succeeded)
	assert.Equal(t, 12, exceeded)
	assert.Equal(t, 8, testutil.ReloadUser(t, db, a.ID).DayLikesCount)
}

func TestCrossingLikesConverge(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
		wg.Add(1)
		go func(i int, actor, target uuid.UUID) {
			defer wg.Done()
			_, errs[i] = engine.SendLike(ctx, actor, target, matching.KindInterested)
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	var edges []models.ConnectionRequest
	require.NoError(t, db.Where("pair_key = ?", models.PairKey(a.ID, b.ID)).Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.Equal(t, models.StatusAccepted, edges[0].Status)
}

func TestReview(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	res, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	// only the recipient may review
	_, err = engine.Review(ctx, a.ID, res.Edge.ID, matching.DecisionAccepted)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	edge, err := engine.Review(ctx, b.ID, res.Edge.ID, matching.DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, edge.Status)

	// no longer pending
	_, err = engine.Review(ctx, b.ID, res.Edge.ID, matching.DecisionRejected)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	_, err = engine.Review(ctx, b.ID, uuid.New(), matching.DecisionRejected)
	assert.ErrorIs(t, err, matching.ErrNotFound)
}

func TestSpecialLikeThenOrdinaryInterestMatches(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	res, err := engine.SendSpecialLike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeSaved, res.Outcome)
	assert.True(t, res.Edge.Saved)
	assert.Equal(t, models.StatusPendingInterested, res.Edge.Status)
	assert.Equal(t, 1, res.SpecialLikeCount)
	assert.Equal(t, 0, res.DayLikesCount)

	res, err = engine.SendLike(ctx, b.ID, a.ID, matching.KindInterested)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeMatched, res.Outcome)
	assert.Equal(t, models.StatusAccepted, res.Edge.Status)
	assert.Equal(t, 1, testutil.ReloadUser(t, db, b.ID).DayLikesCount)
	assert.Equal(t, 1, testutil.ReloadUser(t, db, a.ID).SpecialLikeCount)
}

func TestSpecialLikeUpgradesIncomingEdge(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")
	c := testutil.CreateUser(t, db, "Carol")

	_, err := engine.SendLike(ctx, b.ID, a.ID, matching.KindInterested)
	require.NoError(t, err)
	res, err := engine.SendSpecialLike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeMatched, res.Outcome)
	assert.Equal(t, models.StatusAccepted, res.Edge.Status)
	assert.True(t, res.Edge.Saved)

	_, err = engine.SendLike(ctx, c.ID, a.ID, matching.KindIgnored)
	require.NoError(t, err)
	res, err = engine.SendSpecialLike(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeRejected, res.Outcome)
	assert.Equal(t, models.StatusRejected, res.Edge.Status)
	assert.True(t, res.Edge.Saved)
	assert.Equal(t, 2, res.SpecialLikeCount)
}

func TestMutualSpecialLikeCreatesReciprocalEdge(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	_, err := engine.SendSpecialLike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	res, err := engine.SendSpecialLike(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeMatched, res.Outcome)

	var edges []models.ConnectionRequest
	require.NoError(t, db.Where("pair_key = ?", models.PairKey(a.ID, b.ID)).Order("slot").Find(&edges).Error)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, models.StatusAccepted, e.Status)
		assert.True(t, e.Saved)
	}
	assert.Equal(t, a.ID, edges[0].LikerID)
	assert.Equal(t, b.ID, edges[1].LikerID)
}

func TestSpecialLikeQuotaAndPromotion(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")

	b := testutil.CreateUser(t, db, "Bob")
	_, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindIgnored)
	require.NoError(t, err)
	res, err := engine.SendSpecialLike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeSaved, res.Outcome)
	assert.Equal(t, models.StatusPendingInterested, res.Edge.Status)

	_, err = engine.SendSpecialLike(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, matching.ErrDuplicateEdge)

	for i := 0; i < 2; i++ {
		target := testutil.CreateUser(t, db, fmt.Sprintf("Target%d", i))
		_, err := engine.SendSpecialLike(ctx, a.ID, target.ID)
		require.NoError(t, err)
	}

	last := testutil.CreateUser(t, db, "Last")
	_, err = engine.SendSpecialLike(ctx, a.ID, last.ID)
	assert.ErrorIs(t, err, matching.ErrQuotaExceeded)
	assert.Equal(t, 3, testutil.ReloadUser(t, db, a.ID).SpecialLikeCount)
}

func TestSpecialLikeOnTerminalEdge(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	_, err := engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)
	_, err = engine.SendLike(ctx, b.ID, a.ID, matching.KindInterested)
	require.NoError(t, err)

	_, err = engine.SendSpecialLike(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, matching.ErrInvalidState)
	assert.Equal(t, 0, testutil.ReloadUser(t, db, b.ID).SpecialLikeCount)
}

func TestBlockIsTerminalAndIdempotent(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")
	c := testutil.CreateUser(t, db, "Carol")

	err := engine.Block(ctx, a.ID, c.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	_, err = engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	require.NoError(t, engine.Block(ctx, b.ID, a.ID))
	require.NoError(t, engine.Block(ctx, b.ID, a.ID))

	var blocks int64
	require.NoError(t, db.Model(&models.Block{}).Where("blocker_id = ? AND blocked_id = ?", b.ID, a.ID).Count(&blocks).Error)
	assert.Equal(t, int64(1), blocks)

	status, err := engine.GetStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, status.State)

	_, err = engine.SendLike(ctx, b.ID, a.ID, matching.KindInterested)
	assert.ErrorIs(t, err, matching.ErrBlocked)
	_, err = engine.SendSpecialLike(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, matching.ErrBlocked)
	assert.Equal(t, 0, testutil.ReloadUser(t, db, a.ID).SpecialLikeCount)
}

func TestGetStatus(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	status, err := engine.GetStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.StateNone, status.State)
	assert.Nil(t, status.RequestID)

	_, err = engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	status, err = engine.GetStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingInterested, status.State)
	assert.Equal(t, matching.DirectionOutgoing, status.Direction)

	status, err = engine.GetStatus(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, matching.DirectionIncoming, status.Direction)

	_, err = engine.GetStatus(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, matching.ErrInvalidSelfTarget)
}
