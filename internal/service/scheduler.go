package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/pkg/lease"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"github.com/quocanhngo/sportcast/pkg/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultTickInterval = time.Minute
	defaultLeaseTTL     = 55 * time.Second
	tickLeaseKey        = "sportcast:scheduler:tick"
)

// Scheduler drives the lifecycle engine and the retention sweeper on a fixed
// interval. Passes never overlap: cron skips a tick while the previous one
// runs, a process-wide try-lock covers manual refreshes and a renewed lease
// covers other instances. Per-match dispatch claims keep a push single even
// if the lease is lost.
type Scheduler struct {
	engine   *LifecycleEngine
	sweeper  *RetentionSweeper
	locker   lease.Locker
	cron     *cron.Cron
	interval time.Duration
	leaseTTL time.Duration
	running  sync.Mutex
	log      *zap.Logger

	startOnce sync.Once
	started   bool
}

// SchedulerOption customises the Scheduler
type SchedulerOption func(*Scheduler)

// WithInterval sets the tick period
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLease shares ticks across instances through locker
func WithLease(locker lease.Locker, ttl time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if locker != nil {
			s.locker = locker
		}
		if ttl > 0 {
			s.leaseTTL = ttl
		}
	}
}

// WithCron injects a preconfigured cron instance, primarily for testing
func WithCron(c *cron.Cron) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

func NewScheduler(engine *LifecycleEngine, sweeper *RetentionSweeper, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine:   engine,
		sweeper:  sweeper,
		locker:   lease.LocalLocker{},
		interval: defaultTickInterval,
		leaseTTL: defaultLeaseTTL,
		log:      logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s
}

// Start registers the tick job and launches the cron loop
func (s *Scheduler) Start() error {
	var err error
	s.startOnce.Do(func() {
		job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(s.tick))
		if _, err = s.cron.AddJob(fmt.Sprintf("@every %s", s.interval), job); err != nil {
			err = fmt.Errorf("schedule lifecycle tick: %w", err)
			return
		}
		s.cron.Start()
		s.started = true
		s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	})
	return err
}

// Stop halts scheduling and waits for an in-flight tick to finish
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) tick() {
	report, err := s.RunOnce(context.Background())
	if err == ErrTickInFlight {
		return
	}
	if err != nil {
		s.log.Warn("lifecycle tick finished with errors",
			zap.Int("reminders", report.RemindersSent),
			zap.Int("live", report.LiveNotifications),
			zap.Int64("ended", report.MatchesEnded),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("lifecycle tick",
		zap.Int("reminders", report.RemindersSent),
		zap.Int("live", report.LiveNotifications),
		zap.Int64("ended", report.MatchesEnded),
	)
}

// RunOnce performs one full pass: lifecycle checks first, then retention.
// It returns ErrTickInFlight when another pass holds the lock. Once started,
// a pass runs to completion even if ctx is cancelled, so a push that went out
// always gets its flag written.
func (s *Scheduler) RunOnce(ctx context.Context) (model.TickReport, error) {
	var report model.TickReport
	if err := ctx.Err(); err != nil {
		return report, err
	}
	ctx = context.WithoutCancel(ctx)

	if !s.running.TryLock() {
		metrics.TicksSkipped.WithLabelValues("in_flight").Inc()
		return report, ErrTickInFlight
	}
	defer s.running.Unlock()

	release, ok, err := s.locker.TryAcquire(ctx, tickLeaseKey, s.leaseTTL)
	switch {
	case err != nil:
		// Redis is down; fall back to the in-process lock
		s.log.Warn("tick lease unavailable, running locally", zap.Error(err))
	case !ok:
		metrics.TicksSkipped.WithLabelValues("lease_held").Inc()
		return report, ErrTickInFlight
	default:
		defer release()
	}

	start := time.Now()
	defer func() {
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()

	errs := s.engine.Run(ctx, &report)
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}

	for _, e := range multierr.Errors(errs) {
		report.Errors = append(report.Errors, e.Error())
	}
	return report, errs
}
