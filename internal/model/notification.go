package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationStatus is the outcome recorded for one dispatch attempt
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// Notification type tags carried in the data payload
const (
	NotificationTypeReminder = "reminder"
	NotificationTypeLive     = "live"
	NotificationTypeCustom   = "custom"
	NotificationTypeTest     = "test"
	NotificationTypeGeneral  = "general"
)

// NotificationLog is the append-only audit row written for every dispatch attempt
type NotificationLog struct {
	ID               uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	Title            string             `json:"title" gorm:"size:255;not null"`
	Message          string             `json:"message" gorm:"type:text"`
	Status           NotificationStatus `json:"status" gorm:"size:20;not null"`
	RecipientsCount  int                `json:"recipients_count" gorm:"not null"`
	FailureCount     int                `json:"failure_count" gorm:"not null"`
	NotificationType string             `json:"notification_type" gorm:"size:50;not null"`
	Data             datatypes.JSONMap  `json:"data"`
	CreatedAt        time.Time          `json:"created_at" gorm:"index"`
}

func (NotificationLog) TableName() string {
	return "notifications_log"
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// UserNotification is a per-user delivery record written by the app side
type UserNotification struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"size:255"`
	Body      string    `json:"body" gorm:"type:text"`
	IsRead    bool      `json:"is_read" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (n *UserNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
