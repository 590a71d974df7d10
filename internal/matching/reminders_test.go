package matching_test

import (
	"context"
	"testing"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderRoundTrip(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	res, err := engine.SendSpecialLike(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// reviewing before a reminder exists is not allowed
	_, err = engine.MarkReviewed(ctx, b.ID, res.Edge.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	edge, err := engine.SendReminder(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, edge.ReminderSent)

	_, err = engine.SendReminder(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, matching.ErrAlreadySent)

	pending, err := engine.ListPendingReminders(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.Edge.ID, pending[0].ID)
	require.NotNil(t, pending[0].Liker)
	assert.Equal(t, "Alice", pending[0].Liker.FirstName)

	// only the recipient can acknowledge
	_, err = engine.MarkReviewed(ctx, a.ID, res.Edge.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	edge, err = engine.MarkReviewed(ctx, b.ID, res.Edge.ID)
	require.NoError(t, err)
	assert.True(t, edge.ReminderReviewed)

	_, err = engine.MarkReviewed(ctx, b.ID, res.Edge.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	pending, err = engine.ListPendingReminders(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReminderRequiresSavedRequest(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	_, err := engine.SendReminder(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	_, err = engine.SendLike(ctx, a.ID, b.ID, matching.KindInterested)
	require.NoError(t, err)

	_, err = engine.SendReminder(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)

	// the recipient cannot remind themselves of someone else's like
	_, err = engine.SendReminder(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, matching.ErrNotFound)
}

func TestReviewAfterReminderMarksReviewed(t *testing.T) {
	engine, db := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Alice")
	b := testutil.CreateUser(t, db, "Bob")

	res, err := engine.SendSpecialLike(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = engine.SendReminder(ctx, a.ID, b.ID)
	require.NoError(t, err)

	edge, err := engine.Review(ctx, b.ID, res.Edge.ID, matching.DecisionAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, edge.Status)
	assert.True(t, edge.ReminderReviewed)

	var stored models.ConnectionRequest
	require.NoError(t, db.First(&stored, "id = ?", res.Edge.ID).Error)
	assert.True(t, stored.ReminderReviewed)
	assert.Equal(t, models.StatusAccepted, stored.Status)
}
