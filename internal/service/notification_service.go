package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"github.com/quocanhngo/sportcast/pkg/metrics"
	"github.com/quocanhngo/sportcast/pkg/notification"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// recentLogLimit is how many log entries the stats view shows
const recentLogLimit = 10

// NotificationService resolves device tokens, dispatches pushes and keeps the
// dispatch audit log. Every attempt that reaches the dispatcher writes exactly
// one notifications_log row.
type NotificationService struct {
	userRepo   *repository.UserRepository
	notifRepo  *repository.NotificationRepository
	dispatcher notification.Dispatcher
	events     Broadcaster
	log        *zap.Logger
}

func NewNotificationService(
	userRepo *repository.UserRepository,
	notifRepo *repository.NotificationRepository,
	dispatcher notification.Dispatcher,
	events Broadcaster,
) *NotificationService {
	return &NotificationService{
		userRepo:   userRepo,
		notifRepo:  notifRepo,
		dispatcher: dispatcher,
		events:     orNop(events),
		log:        logger.WithModule("notification"),
	}
}

// Send pushes msg to every registered device.
// With no device tokens it returns ErrNoRecipients without calling the
// dispatcher. A dispatcher error is returned after the attempt was logged.
func (s *NotificationService) Send(ctx context.Context, msg notification.Message) (notification.Result, error) {
	devices, err := s.userRepo.GetPushDevices(ctx)
	if err != nil {
		return notification.Result{}, fmt.Errorf("load push devices: %w", err)
	}

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.FCMToken != "" {
			tokens = append(tokens, d.FCMToken)
		}
	}

	if len(tokens) == 0 {
		metrics.DispatchAttempts.WithLabelValues("no_recipients", msg.Type()).Inc()
		s.log.Warn("no push tokens registered, skipping dispatch", zap.String("title", msg.Title))
		return notification.Result{}, notification.ErrNoRecipients
	}

	result, dispatchErr := s.dispatcher.Dispatch(ctx, tokens, msg)
	if dispatchErr != nil {
		// Partial delivery cannot be told apart from none
		result = notification.Result{Success: 0, Failure: len(tokens)}
	}

	entry := &model.NotificationLog{
		Title:            msg.Title,
		Message:          msg.Body,
		Status:           model.NotificationStatusSent,
		RecipientsCount:  result.Success,
		FailureCount:     result.Failure,
		NotificationType: msg.Type(),
		Data:             toJSONMap(msg.Data),
	}
	if dispatchErr != nil {
		entry.Status = model.NotificationStatusFailed
	}
	if err := s.notifRepo.CreateLog(ctx, entry); err != nil {
		s.log.Error("failed to write notification log", zap.Error(err))
	}

	metrics.DispatchAttempts.WithLabelValues(string(entry.Status), entry.NotificationType).Inc()
	metrics.DeliveredTokens.Add(float64(result.Success))

	if dispatchErr != nil {
		s.log.Error("dispatch failed",
			zap.String("type", entry.NotificationType),
			zap.Int("tokens", len(tokens)),
			zap.Error(dispatchErr),
		)
		s.events.Broadcast(&model.WSEvent{Type: model.WSEventNotificationFailed, Payload: entry})
		return result, dispatchErr
	}

	s.log.Info("notification dispatched",
		zap.String("type", entry.NotificationType),
		zap.Int("success", result.Success),
		zap.Int("failure", result.Failure),
	)
	s.events.Broadcast(&model.WSEvent{Type: model.WSEventNotificationSent, Payload: entry})
	return result, nil
}

// SendCustom sends an operator-written message to every device
func (s *NotificationService) SendCustom(ctx context.Context, title, message string) model.SendResult {
	return s.sendReport(ctx, notification.Message{
		Title: title,
		Body:  message,
		Data:  map[string]string{"type": model.NotificationTypeCustom},
	})
}

// SendTest sends a fixed test message to every device
func (s *NotificationService) SendTest(ctx context.Context) model.SendResult {
	return s.sendReport(ctx, notification.Message{
		Title: "Test notification 🔔",
		Body:  "Push notifications are working",
		Data:  map[string]string{"type": model.NotificationTypeTest},
	})
}

// sendReport turns Send's outcome into the explicit result shown to operators
func (s *NotificationService) sendReport(ctx context.Context, msg notification.Message) model.SendResult {
	result, err := s.Send(ctx, msg)
	report := model.SendResult{
		Success:         err == nil,
		RecipientsCount: result.Success,
		FailureCount:    result.Failure,
	}
	switch {
	case errors.Is(err, notification.ErrNoRecipients):
		report.Error = "no registered devices to notify"
	case err != nil:
		report.Error = err.Error()
	}
	return report
}

// Stats returns the reachable audience and the latest log entries
func (s *NotificationService) Stats(ctx context.Context) (*model.NotificationStats, error) {
	total, err := s.userRepo.CountWithPushToken(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.notifRepo.RecentLogs(ctx, recentLogLimit)
	if err != nil {
		return nil, err
	}
	return &model.NotificationStats{TotalUsers: total, RecentNotifications: recent}, nil
}

// ListLogs pages through the audit log
func (s *NotificationService) ListLogs(ctx context.Context, limit, offset int) ([]model.NotificationLog, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.notifRepo.ListLogs(ctx, limit, offset)
}

func toJSONMap(data map[string]string) datatypes.JSONMap {
	if len(data) == 0 {
		return nil
	}
	m := make(datatypes.JSONMap, len(data))
	for k, v := range data {
		m[k] = v
	}
	return m
}
