package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a mobile app installation. The admin side only reads its push
// token and prunes it once inactive.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	FCMToken     *string    `json:"fcm_token" gorm:"size:500;uniqueIndex"`
	SimplePushID *string    `json:"simple_push_id" gorm:"size:255"`
	Platform     string     `json:"platform" gorm:"size:20;default:'unknown'"` // android, ios
	LastActive   *time.Time `json:"last_active" gorm:"index"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
