package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/sportcast/internal/model"
	"gorm.io/gorm"
)

// pruneBatch bounds how many log ids are fetched and deleted per round
const pruneBatch = 500

// NotificationRepository handles notifications_log and user_notifications
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateLog appends one dispatch audit row
func (r *NotificationRepository) CreateLog(ctx context.Context, entry *model.NotificationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// RecentLogs returns the newest log entries
func (r *NotificationRepository) RecentLogs(ctx context.Context, limit int) ([]model.NotificationLog, error) {
	var logs []model.NotificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// ListLogs pages through the log, newest first, and returns the total count
func (r *NotificationRepository) ListLogs(ctx context.Context, limit, offset int) ([]model.NotificationLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.NotificationLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.NotificationLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, total, err
}

// PruneLogs keeps the newest `keep` entries and deletes the rest
func (r *NotificationRepository) PruneLogs(ctx context.Context, keep int) (int64, error) {
	var deleted int64
	for {
		var ids []uuid.UUID
		err := r.db.WithContext(ctx).Model(&model.NotificationLog{}).
			Order("created_at DESC").
			Offset(keep).
			Limit(pruneBatch).
			Pluck("id", &ids).Error
		if err != nil {
			return deleted, err
		}
		if len(ids) == 0 {
			return deleted, nil
		}

		res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.NotificationLog{})
		if res.Error != nil {
			return deleted, res.Error
		}
		deleted += res.RowsAffected
		if len(ids) < pruneBatch {
			return deleted, nil
		}
	}
}

// DeleteUserNotificationsBefore removes per-user delivery records created before cutoff
func (r *NotificationRepository) DeleteUserNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.UserNotification{})
	return res.RowsAffected, res.Error
}
