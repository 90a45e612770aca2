package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"github.com/quocanhngo/sportcast/pkg/metrics"
	"github.com/quocanhngo/sportcast/pkg/notification"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Lifecycle windows
const (
	ReminderLead    = 15 * time.Minute
	LiveGrace       = 5 * time.Minute
	BroadcastSpan   = 2 * time.Hour
	defaultReminder = "Match starting soon"
	defaultLive     = "Match started"
)

// DispatchClaimTTL is how long one sender owns a match notification. It
// outlasts a full dispatch, so a crashed sender only delays the retry.
const DispatchClaimTTL = 2 * time.Minute

// Sender is the part of NotificationService the engine needs
type Sender interface {
	Send(ctx context.Context, msg notification.Message) (notification.Result, error)
}

// LifecycleEngine moves matches through reminder, live and ended
type LifecycleEngine struct {
	matches *repository.MatchRepository
	sender  Sender
	events  Broadcaster
	now     func() time.Time
	log     *zap.Logger
}

// LifecycleOption configures a LifecycleEngine
type LifecycleOption func(*LifecycleEngine)

// WithLifecycleClock overrides the clock used to evaluate windows
func WithLifecycleClock(now func() time.Time) LifecycleOption {
	return func(e *LifecycleEngine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewLifecycleEngine(matches *repository.MatchRepository, sender Sender, events Broadcaster, opts ...LifecycleOption) *LifecycleEngine {
	e := &LifecycleEngine{
		matches: matches,
		sender:  sender,
		events:  orNop(events),
		now:     time.Now,
		log:     logger.WithModule("lifecycle"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies the three checks once. A match handled by the reminder check
// is not considered by the live check in the same pass.
func (e *LifecycleEngine) Run(ctx context.Context, report *model.TickReport) error {
	now := e.now().UTC()
	handled := make(map[uuid.UUID]struct{})

	var errs error
	reminded, err := e.CheckReminders(ctx, now, handled)
	report.RemindersSent += reminded
	errs = multierr.Append(errs, err)

	live, err := e.CheckLive(ctx, now, handled)
	report.LiveNotifications += live
	errs = multierr.Append(errs, err)

	ended, err := e.SweepEnded(ctx, now)
	report.MatchesEnded += ended
	errs = multierr.Append(errs, err)

	return errs
}

// CheckReminders notifies every active, not-started match starting within
// [now, now+15m] that has not been reminded. Matches whose dispatch fails
// keep their flag unset and are retried on the next pass.
func (e *LifecycleEngine) CheckReminders(ctx context.Context, now time.Time, handled map[uuid.UUID]struct{}) (int, error) {
	due, err := e.matches.FindReminderDue(ctx, now, now.Add(ReminderLead))
	if err != nil {
		return 0, fmt.Errorf("find reminder-due matches: %w", err)
	}

	var errs error
	sent := 0
	for i := range due {
		m := &due[i]
		if _, ok := handled[m.ID]; ok {
			continue
		}
		handled[m.ID] = struct{}{}

		ok, err := e.remind(ctx, m, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, errs
}

func (e *LifecycleEngine) remind(ctx context.Context, m *model.Match, now time.Time) (bool, error) {
	claimed, err := e.matches.ClaimDispatch(ctx, m.ID, repository.DispatchReminder, now, DispatchClaimTTL)
	if err != nil {
		return false, fmt.Errorf("claim reminder for match %s: %w", m.ID, err)
	}
	if !claimed {
		e.log.Debug("reminder owned by another sender", zap.String("match_id", m.ID.String()))
		return false, nil
	}

	if _, err := e.sender.Send(ctx, ReminderMessage(m)); err != nil {
		e.logSendFailure("reminder", m, err)
		e.release(ctx, m, repository.DispatchReminder)
		return false, fmt.Errorf("reminder for match %s: %w", m.ID, err)
	}
	if err := e.matches.MarkReminderSent(ctx, m.ID); err != nil {
		e.log.Error("reminder sent but flag update failed", zap.String("match_id", m.ID.String()), zap.Error(err))
		return false, fmt.Errorf("mark reminder sent for match %s: %w", m.ID, err)
	}

	metrics.LifecycleTransitions.WithLabelValues("reminder").Inc()
	e.log.Info("reminder sent", zap.String("match_id", m.ID.String()), zap.String("fixture", m.Fixture()))
	e.events.Broadcast(&model.WSEvent{
		Type:    model.WSEventReminderSent,
		Payload: model.MatchEvent{MatchID: m.ID, Title: m.Title, Status: m.Status},
	})
	return true, nil
}

// CheckLive notifies every active match that started within [now-5m, now]
// without a live notification, then marks it live in the same write.
func (e *LifecycleEngine) CheckLive(ctx context.Context, now time.Time, handled map[uuid.UUID]struct{}) (int, error) {
	due, err := e.matches.FindLiveDue(ctx, now.Add(-LiveGrace), now)
	if err != nil {
		return 0, fmt.Errorf("find live-due matches: %w", err)
	}

	var errs error
	sent := 0
	for i := range due {
		m := &due[i]
		if _, ok := handled[m.ID]; ok {
			continue
		}
		handled[m.ID] = struct{}{}

		ok, err := e.goLive(ctx, m, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, errs
}

func (e *LifecycleEngine) goLive(ctx context.Context, m *model.Match, now time.Time) (bool, error) {
	claimed, err := e.matches.ClaimDispatch(ctx, m.ID, repository.DispatchLive, now, DispatchClaimTTL)
	if err != nil {
		return false, fmt.Errorf("claim live notification for match %s: %w", m.ID, err)
	}
	if !claimed {
		e.log.Debug("live notification owned by another sender", zap.String("match_id", m.ID.String()))
		return false, nil
	}

	if _, err := e.sender.Send(ctx, LiveMessage(m)); err != nil {
		e.logSendFailure("live", m, err)
		e.release(ctx, m, repository.DispatchLive)
		return false, fmt.Errorf("live notification for match %s: %w", m.ID, err)
	}
	if err := e.matches.MarkLive(ctx, m.ID); err != nil {
		e.log.Error("live notification sent but update failed", zap.String("match_id", m.ID.String()), zap.Error(err))
		return false, fmt.Errorf("mark match %s live: %w", m.ID, err)
	}

	metrics.LifecycleTransitions.WithLabelValues("live").Inc()
	e.log.Info("match is live", zap.String("match_id", m.ID.String()), zap.String("fixture", m.Fixture()))
	e.events.Broadcast(&model.WSEvent{
		Type:    model.WSEventMatchLive,
		Payload: model.MatchEvent{MatchID: m.ID, Title: m.Title, Status: model.MatchStatusLive},
	})
	return true, nil
}

// release drops a claim after a failed send; the claim expires on its own if this fails
func (e *LifecycleEngine) release(ctx context.Context, m *model.Match, kind repository.DispatchKind) {
	if err := e.matches.ReleaseClaim(context.WithoutCancel(ctx), m.ID, kind); err != nil {
		e.log.Warn("release dispatch claim", zap.String("kind", string(kind)), zap.String("match_id", m.ID.String()), zap.Error(err))
	}
}

// SweepEnded ends every active match that started more than two hours ago
func (e *LifecycleEngine) SweepEnded(ctx context.Context, now time.Time) (int64, error) {
	n, err := e.matches.MarkEndedBefore(ctx, now.Add(-BroadcastSpan))
	if err != nil {
		return 0, fmt.Errorf("end stale matches: %w", err)
	}
	if n > 0 {
		metrics.LifecycleTransitions.WithLabelValues("ended").Add(float64(n))
		e.log.Info("matches ended", zap.Int64("count", n))
		e.events.Broadcast(&model.WSEvent{
			Type:    model.WSEventMatchEnded,
			Payload: model.MatchesEndedEvent{Count: n},
		})
	}
	return n, nil
}

func (e *LifecycleEngine) logSendFailure(kind string, m *model.Match, err error) {
	fields := []zap.Field{zap.String("kind", kind), zap.String("match_id", m.ID.String()), zap.Error(err)}
	if errors.Is(err, notification.ErrNoRecipients) {
		e.log.Warn("no recipients, match stays eligible", fields...)
		return
	}
	e.log.Error("dispatch failed, match stays eligible", fields...)
}

// ReminderMessage builds the 15-minute reminder push for m
func ReminderMessage(m *model.Match) notification.Message {
	title := m.Title
	if title == "" {
		title = defaultReminder
	}
	return notification.Message{
		Title: title + " 🏆",
		Body:  m.Fixture() + " - in 15 minutes",
		Data:  matchData(m, model.NotificationTypeReminder),
	}
}

// LiveMessage builds the kick-off push for m
func LiveMessage(m *model.Match) notification.Message {
	title := m.Title
	if title == "" {
		title = defaultLive
	}
	return notification.Message{
		Title: title + " ⚽",
		Body:  m.Fixture() + " - live now",
		Data:  matchData(m, model.NotificationTypeLive),
	}
}

func matchData(m *model.Match, kind string) map[string]string {
	return map[string]string{
		"matchId":    m.ID.String(),
		"type":       kind,
		"image":      m.Image(),
		"matchTitle": m.Title,
	}
}
