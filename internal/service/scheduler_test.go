package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/pkg/lease"
	"github.com/quocanhngo/sportcast/pkg/notification"
)

func newTestScheduler(f *fixture, opts ...SchedulerOption) *Scheduler {
	sweeper := NewRetentionSweeper(f.notifs, f.users, WithRetentionClock(f.clock.Now))
	return NewScheduler(f.engine, sweeper, opts...)
}

func TestRunOnceRunsLifecycleAndRetention(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	f.seedMatch(t, kickoff.Add(10*time.Minute))
	f.seedMatch(t, kickoff.Add(-3*time.Hour))

	s := newTestScheduler(f)
	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemindersSent)
	assert.Equal(t, int64(1), report.MatchesEnded)
	assert.Empty(t, report.Errors)
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	f := newFixture(t, kickoff)
	s := newTestScheduler(f)

	s.running.Lock()
	_, err := s.RunOnce(context.Background())
	s.running.Unlock()
	require.ErrorIs(t, err, ErrTickInFlight)

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
}

func TestRunOnceHonoursSharedLease(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	f.seedMatch(t, kickoff.Add(5*time.Minute))
	s := newTestScheduler(f, WithLease(lease.NewRedisLocker(rdb), 30*time.Second))

	require.NoError(t, mr.Set(tickLeaseKey, "other-instance"))
	_, err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrTickInFlight)
	assert.Zero(t, f.dispatcher.count())

	mr.Del(tickLeaseKey)
	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemindersSent)
	assert.False(t, mr.Exists(tickLeaseKey))
}

func TestRunOnceFinishesAfterCallerCancels(t *testing.T) {
	f := newFixture(t, kickoff)
	m := f.seedMatch(t, kickoff.Add(5*time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	var sends atomic.Int32
	f.engine = NewLifecycleEngine(f.matches, senderFunc(func(context.Context, notification.Message) (notification.Result, error) {
		sends.Add(1)
		// The operator's client goes away right after the push is out
		cancel()
		return notification.Result{Success: 1}, nil
	}), f.events, WithLifecycleClock(f.clock.Now))
	s := newTestScheduler(f)

	report, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemindersSent)
	assert.True(t, f.reload(t, m).ReminderSent)

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, sends.Load())

	// A caller that is already gone does not start a pass
	_, err = s.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSlowPassKeepsSharedLease(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	f.seedMatch(t, kickoff.Add(5*time.Minute))
	f.seedMatch(t, kickoff.Add(10*time.Minute))

	const ttl = 300 * time.Millisecond
	var slowSends atomic.Int32
	sending := make(chan struct{}, 2)
	unblock := make(chan struct{})
	slowEngine := NewLifecycleEngine(f.matches, senderFunc(func(context.Context, notification.Message) (notification.Result, error) {
		slowSends.Add(1)
		sending <- struct{}{}
		<-unblock
		return notification.Result{Success: 1}, nil
	}), f.events, WithLifecycleClock(f.clock.Now))
	first := NewScheduler(slowEngine, NewRetentionSweeper(f.notifs, f.users, WithRetentionClock(f.clock.Now)),
		WithLease(lease.NewRedisLocker(rdb), ttl))
	second := newTestScheduler(f, WithLease(lease.NewRedisLocker(rdb), ttl))

	done := make(chan error, 1)
	go func() {
		_, err := first.RunOnce(context.Background())
		done <- err
	}()
	<-sending

	// Run past the original expiry while the first pass is still sending
	mr.FastForward(200 * time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.TTL(tickLeaseKey) > 200*time.Millisecond
	}, 2*time.Second, 10*time.Millisecond)
	mr.FastForward(200 * time.Millisecond)
	require.True(t, mr.Exists(tickLeaseKey))

	_, err := second.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrTickInFlight)

	close(unblock)
	require.NoError(t, <-done)
	assert.EqualValues(t, 2, slowSends.Load())
	assert.Zero(t, f.dispatcher.count())
	assert.False(t, mr.Exists(tickLeaseKey))
}

func TestRunOnceCollectsErrors(t *testing.T) {
	f := newFixture(t, kickoff)
	require.NoError(t, f.db.Migrator().DropTable(&model.User{}))
	f.seedMatch(t, kickoff.Add(5*time.Minute))

	s := newTestScheduler(f)
	report, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, report.Errors)
}

func TestSchedulerStartStop(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 1)
	f.seedMatch(t, kickoff.Add(5*time.Minute))

	s := newTestScheduler(f, WithInterval(time.Second))
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		return f.dispatcher.count() == 1
	}, 5*time.Second, 50*time.Millisecond)

	s.Stop()
	assert.Equal(t, 1, f.dispatcher.count())
}
