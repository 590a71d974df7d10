package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/matching"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedExcludesKnownAndBlockedUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := testEngine(db)
	svc := NewUserService(db, engine)
	ctx := context.Background()

	me := testutil.CreateUser(t, db, "Me")
	liked := testutil.CreateUser(t, db, "Liked")
	likedMe := testutil.CreateUser(t, db, "LikedMe")
	blocked := testutil.CreateUser(t, db, "Blocked")
	blocker := testutil.CreateUser(t, db, "Blocker")
	fresh := testutil.CreateUser(t, db, "Fresh")

	_, err := engine.SendLike(ctx, me.ID, liked.ID, matching.KindInterested)
	require.NoError(t, err)
	_, err = engine.SendLike(ctx, likedMe.ID, me.ID, matching.KindIgnored)
	require.NoError(t, err)
	addBlock(t, db, me.ID, blocked.ID)
	addBlock(t, db, blocker.ID, me.ID)

	feed, err := svc.Feed(ctx, me.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, feed.Limit)
	require.Len(t, feed.Users, 1)
	assert.Equal(t, fresh.ID, feed.Users[0].ID)
}

func TestFeedPagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db, testEngine(db))
	me := testutil.CreateUser(t, db, "Me")
	for i := 0; i < 5; i++ {
		testutil.CreateUser(t, db, fmt.Sprintf("U%d", i))
	}

	seen := map[uuid.UUID]bool{}
	for page := 1; page <= 3; page++ {
		feed, err := svc.Feed(context.Background(), me.ID, page, 2)
		require.NoError(t, err)
		for _, u := range feed.Users {
			seen[u.ID] = true
		}
	}
	assert.Len(t, seen, 5)

	feed, err := svc.Feed(context.Background(), me.ID, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 50, feed.Limit)
}

func TestListsAroundTheEngine(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := testEngine(db)
	svc := NewUserService(db, engine)
	ctx := context.Background()

	me := testutil.CreateUser(t, db, "Me")
	match := testutil.CreateUser(t, db, "Match")
	admirer := testutil.CreateUser(t, db, "Admirer")
	crush := testutil.CreateUser(t, db, "Crush")

	_, err := engine.SendLike(ctx, match.ID, me.ID, matching.KindInterested)
	require.NoError(t, err)
	_, err = engine.SendLike(ctx, me.ID, match.ID, matching.KindInterested)
	require.NoError(t, err)
	_, err = engine.SendSpecialLike(ctx, admirer.ID, me.ID)
	require.NoError(t, err)
	_, err = engine.SendReminder(ctx, admirer.ID, me.ID)
	require.NoError(t, err)
	_, err = engine.SendSpecialLike(ctx, me.ID, crush.ID)
	require.NoError(t, err)

	connections, err := svc.Connections(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, match.ID, connections[0].ID)

	received, err := svc.RequestsReceived(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, admirer.ID, received[0].User.ID)
	assert.True(t, received[0].Saved)

	saved, err := svc.Saved(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, crush.ID, saved[0].User.ID)
	assert.Equal(t, models.StatusPendingInterested, saved[0].Status)

	reminders, err := svc.Reminders(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, admirer.ID, reminders[0].User.ID)

	quota, err := svc.Quota(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, quota.DailyLikesUsed)
	assert.Equal(t, 7, quota.DailyLikesRemaining)
	assert.Equal(t, 1, quota.SpecialLikesUsed)
	assert.Equal(t, 2, quota.SpecialLikesRemaining)
}
