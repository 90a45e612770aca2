package repository

import (
	"context"
	"time"

	"github.com/quocanhngo/sportcast/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for app users
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetPushDevices returns every user holding a non-empty push token
func (r *UserRepository) GetPushDevices(ctx context.Context) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("fcm_token", "platform").
		Where("fcm_token IS NOT NULL AND fcm_token <> ''").
		Find(&devices).Error
	return devices, err
}

// CountWithPushToken counts users that can receive a push
func (r *UserRepository) CountWithPushToken(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("fcm_token IS NOT NULL AND fcm_token <> ''").
		Count(&count).Error
	return count, err
}

// UpsertDevice registers a token, refreshing last_active when it already exists
func (r *UserRepository) UpsertDevice(ctx context.Context, token, platform string, lastActive time.Time) error {
	user := model.User{
		FCMToken:   &token,
		Platform:   platform,
		LastActive: &lastActive,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fcm_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_active": lastActive,
			"platform":    platform,
		}),
	}).Create(&user).Error
}

// DeleteInactiveBefore removes users whose last activity is older than cutoff
func (r *UserRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("last_active < ?", cutoff).
		Delete(&model.User{})
	return res.RowsAffected, res.Error
}
