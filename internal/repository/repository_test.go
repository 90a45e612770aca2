package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quocanhngo/sportcast/internal/database/testutil"
	"github.com/quocanhngo/sportcast/internal/model"
)

var base = time.Date(2026, 5, 2, 19, 0, 0, 0, time.UTC)

func createMatch(t *testing.T, repo *MatchRepository, start time.Time, mutate func(*model.Match)) *model.Match {
	t.Helper()
	m := &model.Match{Title: "m", Opponent1Name: "a", Opponent2Name: "b", MatchTime: start, IsActive: true}
	if mutate != nil {
		mutate(m)
	}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

func ids(matches []model.Match) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ID)
	}
	return out
}

func TestFindReminderDue(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	due := createMatch(t, repo, base.Add(10*time.Minute), nil)
	createMatch(t, repo, base.Add(10*time.Minute), func(m *model.Match) { m.ReminderSent = true })
	createMatch(t, repo, base.Add(10*time.Minute), func(m *model.Match) { m.Status = model.MatchStatusLive })
	createMatch(t, repo, base.Add(10*time.Minute), func(m *model.Match) { m.IsActive = false })
	createMatch(t, repo, base.Add(20*time.Minute), nil)

	got, err := repo.FindReminderDue(ctx, base, base.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{due.ID}, ids(got))

	require.NoError(t, repo.MarkReminderSent(ctx, due.ID))
	got, err = repo.FindReminderDue(ctx, base, base.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindLiveDueAndMarkLive(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	due := createMatch(t, repo, base.Add(-2*time.Minute), nil)
	createMatch(t, repo, base.Add(-2*time.Minute), func(m *model.Match) { m.Status = model.MatchStatusEnded })
	createMatch(t, repo, base.Add(-10*time.Minute), nil)

	got, err := repo.FindLiveDue(ctx, base.Add(-5*time.Minute), base)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{due.ID}, ids(got))

	require.NoError(t, repo.MarkLive(ctx, due.ID))
	m, err := repo.FindByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusLive, m.Status)
	assert.True(t, m.LiveNotificationSent)
}

func TestClaimDispatch(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()
	m := createMatch(t, repo, base, nil)

	ok, err := repo.ClaimDispatch(ctx, m.ID, DispatchLive, base, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Held by the first sender until it expires
	ok, err = repo.ClaimDispatch(ctx, m.ID, DispatchLive, base.Add(30*time.Second), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Claims are per notification kind
	ok, err = repo.ClaimDispatch(ctx, m.ID, DispatchReminder, base, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimDispatch(ctx, m.ID, DispatchLive, base.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.ReleaseClaim(ctx, m.ID, DispatchLive))
	ok, err = repo.ClaimDispatch(ctx, m.ID, DispatchLive, base.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.MarkLive(ctx, m.ID))
	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LiveClaimedUntil)

	ok, err = repo.ClaimDispatch(ctx, m.ID, DispatchLive, base.Add(time.Hour), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "a sent notification cannot be claimed again")

	ok, err = repo.ClaimDispatch(ctx, uuid.New(), DispatchLive, base, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkEndedBefore(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	createMatch(t, repo, base.Add(-3*time.Hour), nil)
	createMatch(t, repo, base.Add(-3*time.Hour), func(m *model.Match) { m.Status = model.MatchStatusLive })
	createMatch(t, repo, base.Add(-time.Hour), nil)

	n, err := repo.MarkEndedBefore(ctx, base.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ended, err := repo.CountByStatus(ctx, model.MatchStatusEnded)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ended)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestMatchNotFound(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Updates(ctx, uuid.New(), map[string]interface{}{"title": "x"}), gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Delete(ctx, uuid.New()), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Updates(ctx, uuid.New(), nil))
}

func TestPruneLogsAcrossBatches(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	const total = pruneBatch + 150
	logs := make([]model.NotificationLog, 0, total)
	for i := 0; i < total; i++ {
		logs = append(logs, model.NotificationLog{
			Title:            "n",
			Status:           model.NotificationStatusSent,
			NotificationType: model.NotificationTypeGeneral,
			CreatedAt:        base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, db.CreateInBatches(&logs, 100).Error)

	deleted, err := repo.PruneLogs(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(total-100), deleted)

	kept, err := repo.RecentLogs(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, kept, 100)
	assert.True(t, kept[99].CreatedAt.Equal(base.Add(time.Duration(total-100)*time.Second)))

	deleted, err = repo.PruneLogs(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestPushDevices(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertDevice(ctx, "tok-1", "android", base))
	require.NoError(t, repo.UpsertDevice(ctx, "tok-2", "ios", base))
	require.NoError(t, repo.UpsertDevice(ctx, "tok-1", "ios", base.Add(time.Hour)))
	empty := ""
	require.NoError(t, repo.Create(ctx, &model.User{FCMToken: &empty}))

	devices, err := repo.GetPushDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	count, err := repo.CountWithPushToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var user model.User
	require.NoError(t, db.Where("fcm_token = ?", "tok-1").First(&user).Error)
	assert.Equal(t, "ios", user.Platform)
	assert.True(t, user.LastActive.Equal(base.Add(time.Hour)))

	n, err := repo.DeleteInactiveBefore(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
