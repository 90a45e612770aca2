package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/notification"
)

func newMatchService(f *fixture) *MatchService {
	return NewMatchService(f.matches, f.notifier, f.events, WithMatchClock(f.clock.Now))
}

func TestCreateMatchDefaults(t *testing.T) {
	f := newFixture(t, kickoff)
	svc := newMatchService(f)

	m, err := svc.Create(context.Background(), model.CreateMatchRequest{
		Title:         "Final",
		Opponent1Name: "Spain",
		Opponent2Name: "Italy",
		MatchTime:     kickoff.In(time.FixedZone("CET", 3600)),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, model.MatchStatusNotStarted, m.Status)
	assert.True(t, m.IsActive)
	assert.False(t, m.ReminderSent)
	assert.False(t, m.LiveNotificationSent)
	assert.Equal(t, "YouTube", m.VideoType)
	assert.True(t, m.MatchTime.Equal(kickoff))

	_, err = svc.Create(context.Background(), model.CreateMatchRequest{
		Title: "x", Opponent1Name: "a", Opponent2Name: "b", MatchTime: kickoff, Status: "paused",
	})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateToLiveNotifiesOnce(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 2)
	svc := newMatchService(f)
	m := f.seedMatch(t, kickoff.Add(time.Hour))

	live := model.MatchStatusLive
	updated, err := svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &live})
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusLive, updated.Status)
	assert.True(t, updated.LiveNotificationSent)
	assert.Equal(t, []string{model.NotificationTypeLive}, f.dispatcher.types())

	// Re-saving the form with the same status does not notify again
	title := "Derby (replay)"
	_, err = svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &live, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.count())

	// Back to not-started and live again: the flag still guards the push
	notStarted := model.MatchStatusNotStarted
	_, err = svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &notStarted})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &live})
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestUpdateToLiveFailedSendLeavesFlag(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	f.dispatcher.setErr(errors.New("status 503"))
	svc := newMatchService(f)
	m := f.seedMatch(t, kickoff)

	live := model.MatchStatusLive
	updated, err := svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &live})
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusLive, updated.Status)
	assert.False(t, updated.LiveNotificationSent)
}

func TestUpdateToLiveDuringPassSendsOnce(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	m := f.seedMatch(t, kickoff.Add(-time.Minute))

	var passSends atomic.Int32
	sending := make(chan struct{})
	unblock := make(chan struct{})
	engine := NewLifecycleEngine(f.matches, senderFunc(func(ctx context.Context, msg notification.Message) (notification.Result, error) {
		passSends.Add(1)
		close(sending)
		<-unblock
		return notification.Result{Success: 1}, nil
	}), f.events, WithLifecycleClock(f.clock.Now))

	done := make(chan model.TickReport, 1)
	go func() {
		var report model.TickReport
		_ = engine.Run(context.Background(), &report)
		done <- report
	}()
	<-sending

	live := model.MatchStatusLive
	updated, err := newMatchService(f).Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &live})
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusLive, updated.Status)
	assert.False(t, updated.LiveNotificationSent)
	assert.Zero(t, f.dispatcher.count())

	close(unblock)
	report := <-done
	assert.Equal(t, 1, report.LiveNotifications)
	assert.EqualValues(t, 1, passSends.Load())
	assert.True(t, f.reload(t, m).LiveNotificationSent)
}

func TestUpdateToLiveSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	m := f.seedMatch(t, kickoff.Add(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	var sends atomic.Int32
	svc := NewMatchService(f.matches, senderFunc(func(context.Context, notification.Message) (notification.Result, error) {
		sends.Add(1)
		cancel()
		return notification.Result{Success: 1}, nil
	}), f.events, WithMatchClock(f.clock.Now))

	live := model.MatchStatusLive
	updated, err := svc.Update(ctx, m.ID, model.UpdateMatchRequest{Status: &live})
	require.NoError(t, err)
	assert.True(t, updated.LiveNotificationSent)
	assert.True(t, f.reload(t, m).LiveNotificationSent)
	assert.EqualValues(t, 1, sends.Load())
}

func TestUpdateFields(t *testing.T) {
	f := newFixture(t, kickoff)
	svc := newMatchService(f)
	m := f.seedMatch(t, kickoff)

	newTime := kickoff.Add(24 * time.Hour)
	url := "https://stream.example/hls.m3u8"
	updated, err := svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{MatchTime: &newTime, LiveURL: &url})
	require.NoError(t, err)
	assert.True(t, updated.MatchTime.Equal(newTime))
	assert.Equal(t, url, updated.LiveURL)
	assert.Equal(t, "Derby", updated.Title)
	assert.Zero(t, f.dispatcher.count())

	bad := model.MatchStatus("paused")
	_, err = svc.Update(context.Background(), m.ID, model.UpdateMatchRequest{Status: &bad})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Update(context.Background(), uuid.New(), model.UpdateMatchRequest{LiveURL: &url})
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSetActiveAndDelete(t *testing.T) {
	f := newFixture(t, kickoff)
	svc := newMatchService(f)
	m := f.seedMatch(t, kickoff)

	got, err := svc.SetActive(context.Background(), m.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = svc.SetActive(context.Background(), m.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	require.NoError(t, svc.Delete(context.Background(), m.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), m.ID), ErrMatchNotFound)
	_, err = svc.Get(context.Background(), m.ID)
	require.ErrorIs(t, err, ErrMatchNotFound)
	_, err = svc.SetActive(context.Background(), m.ID, true)
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestBuildTimeline(t *testing.T) {
	day1Late := model.Match{Title: "late", MatchTime: time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)}
	day1Early := model.Match{Title: "early", MatchTime: time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC)}
	day2 := model.Match{Title: "next", MatchTime: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}

	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	days := BuildTimeline([]model.Match{day1Late, day2, day1Early}, now)

	require.Len(t, days, 2)
	assert.Equal(t, "2026-03-15", days[0].Date)
	assert.Equal(t, "2026-03-14", days[1].Date)
	require.Len(t, days[1].Matches, 2)
	assert.Equal(t, "early", days[1].Matches[0].Title)
	assert.True(t, days[1].Matches[0].IsLiveNow)
	assert.False(t, days[1].Matches[1].IsLiveNow)
	assert.False(t, days[0].Matches[0].IsLiveNow)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedMatch(t, kickoff)
	f.seedMatch(t, kickoff, func(m *model.Match) { m.Status = model.MatchStatusLive })
	require.NoError(t, f.db.Create(&model.Category{Name: "Football", IsActive: true}).Error)
	require.NoError(t, f.db.Create(&model.Channel{Name: "beIN 1", IsActive: true}).Error)
	require.NoError(t, f.db.Create(&model.Channel{Name: "beIN 2", IsActive: true}).Error)

	svc := NewDashboardService(f.matches, repository.NewCatalogRepository(f.db))
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{Matches: 2, Categories: 1, Channels: 2, LiveMatches: 1}, *stats)
}
