package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quocanhngo/sportcast/internal/database/testutil"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/notification"
)

var kickoff = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type fakeDispatcher struct {
	mu       sync.Mutex
	messages []notification.Message
	tokens   [][]string
	err      error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, tokens []string, msg notification.Message) (notification.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	f.tokens = append(f.tokens, tokens)
	if f.err != nil {
		return notification.Result{}, f.err
	}
	return notification.Result{Success: len(tokens)}, nil
}

func (f *fakeDispatcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeDispatcher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Type())
	}
	return out
}

type senderFunc func(ctx context.Context, msg notification.Message) (notification.Result, error)

func (f senderFunc) Send(ctx context.Context, msg notification.Message) (notification.Result, error) {
	return f(ctx, msg)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Broadcast(event *model.WSEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event.Type)
}

type fixture struct {
	db         *gorm.DB
	matches    *repository.MatchRepository
	users      *repository.UserRepository
	notifs     *repository.NotificationRepository
	dispatcher *fakeDispatcher
	events     *recordingBroadcaster
	notifier   *NotificationService
	engine     *LifecycleEngine
	clock      *clock
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	f := &fixture{
		db:         db,
		matches:    repository.NewMatchRepository(db),
		users:      repository.NewUserRepository(db),
		notifs:     repository.NewNotificationRepository(db),
		dispatcher: &fakeDispatcher{},
		events:     &recordingBroadcaster{},
		clock:      &clock{now: now},
	}
	f.notifier = NewNotificationService(f.users, f.notifs, f.dispatcher, f.events)
	f.engine = NewLifecycleEngine(f.matches, f.notifier, f.events, WithLifecycleClock(f.clock.Now))
	return f
}

func (f *fixture) seedDevices(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		token := fmt.Sprintf("token-%d", i)
		active := kickoff
		require.NoError(t, f.users.Create(context.Background(), &model.User{
			FCMToken:   &token,
			Platform:   "android",
			LastActive: &active,
		}))
	}
}

func (f *fixture) seedMatch(t *testing.T, start time.Time, mutate ...func(*model.Match)) *model.Match {
	t.Helper()
	m := &model.Match{
		Title:         "Derby",
		Opponent1Name: "Arsenal",
		Opponent1Img:  "https://cdn.example/arsenal.png",
		Opponent2Name: "Chelsea",
		MatchTime:     start.UTC(),
		IsActive:      true,
	}
	for _, fn := range mutate {
		fn(m)
	}
	require.NoError(t, f.matches.Create(context.Background(), m))
	return m
}

func (f *fixture) reload(t *testing.T, m *model.Match) *model.Match {
	t.Helper()
	got, err := f.matches.FindByID(context.Background(), m.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) logCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.NotificationLog{}).Count(&n).Error)
	return n
}

func (f *fixture) run(t *testing.T) model.TickReport {
	t.Helper()
	var report model.TickReport
	_ = f.engine.Run(context.Background(), &report)
	return report
}
