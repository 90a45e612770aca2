package service

import (
	"context"
	"fmt"
	"time"

	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"github.com/quocanhngo/sportcast/pkg/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Retention limits
const (
	UserNotificationTTL = 7 * 24 * time.Hour
	NotificationLogKeep = 100
	InactiveUserTTL     = 30 * 24 * time.Hour
)

// RetentionReport counts the rows removed by one sweep
type RetentionReport struct {
	UserNotifications int64
	NotificationLogs  int64
	InactiveUsers     int64
}

// RetentionSweeper bounds the growth of the notification and user tables
type RetentionSweeper struct {
	notifRepo *repository.NotificationRepository
	userRepo  *repository.UserRepository
	now       func() time.Time
	log       *zap.Logger
}

// RetentionOption configures a RetentionSweeper
type RetentionOption func(*RetentionSweeper)

// WithRetentionClock overrides the clock used to compute cutoffs
func WithRetentionClock(now func() time.Time) RetentionOption {
	return func(s *RetentionSweeper) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRetentionSweeper(notifRepo *repository.NotificationRepository, userRepo *repository.UserRepository, opts ...RetentionOption) *RetentionSweeper {
	s := &RetentionSweeper{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		now:       time.Now,
		log:       logger.WithModule("retention"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep runs the three deletions independently. A failing step does not
// stop the others; all step errors are returned together.
func (s *RetentionSweeper) Sweep(ctx context.Context) (RetentionReport, error) {
	now := s.now().UTC()
	var report RetentionReport
	var errs error

	n, err := s.notifRepo.DeleteUserNotificationsBefore(ctx, now.Add(-UserNotificationTTL))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete old user notifications: %w", err))
	}
	report.UserNotifications = n

	n, err = s.notifRepo.PruneLogs(ctx, NotificationLogKeep)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("prune notification log: %w", err))
	}
	report.NotificationLogs = n

	n, err = s.userRepo.DeleteInactiveBefore(ctx, now.Add(-InactiveUserTTL))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete inactive users: %w", err))
	}
	report.InactiveUsers = n

	metrics.RetentionDeletes.WithLabelValues("user_notifications").Add(float64(report.UserNotifications))
	metrics.RetentionDeletes.WithLabelValues("notifications_log").Add(float64(report.NotificationLogs))
	metrics.RetentionDeletes.WithLabelValues("users").Add(float64(report.InactiveUsers))

	if total := report.UserNotifications + report.NotificationLogs + report.InactiveUsers; total > 0 {
		s.log.Info("retention sweep",
			zap.Int64("user_notifications", report.UserNotifications),
			zap.Int64("notifications_log", report.NotificationLogs),
			zap.Int64("users", report.InactiveUsers),
		)
	}
	if errs != nil {
		s.log.Warn("retention sweep incomplete", zap.Error(errs))
	}
	return report, errs
}
