package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchStatus is the broadcast state of a match
type MatchStatus string

const (
	MatchStatusNotStarted MatchStatus = "not-started"
	MatchStatusLive       MatchStatus = "live"
	MatchStatusEnded      MatchStatus = "ended"
)

// Valid reports whether s is one of the known statuses
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusNotStarted, MatchStatusLive, MatchStatusEnded:
		return true
	}
	return false
}

// Match is one scheduled or in-progress live event
type Match struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string     `json:"title" gorm:"size:255;not null"`
	CategoryID    *uuid.UUID `json:"category_id" gorm:"type:uuid;index"`
	ChannelID     *uuid.UUID `json:"channel_id" gorm:"type:uuid;index"`
	Opponent1Name string     `json:"opponent1_name" gorm:"size:255;not null"`
	Opponent1Img  string     `json:"opponent1_image" gorm:"column:opponent1_image;size:500;default:''"`
	Opponent2Name string     `json:"opponent2_name" gorm:"size:255;not null"`
	Opponent2Img  string     `json:"opponent2_image" gorm:"column:opponent2_image;size:500;default:''"`
	MatchTime     time.Time  `json:"match_time" gorm:"not null;index"`

	// Stream sources
	VideoType    string `json:"video_type" gorm:"size:50;default:'YouTube'"`
	LiveURL      string `json:"live_url" gorm:"size:1000;default:''"`
	LiveURLLow   string `json:"live_url_low" gorm:"size:1000;default:''"`
	LiveURLHigh  string `json:"live_url_high" gorm:"size:1000;default:''"`
	ThumbnailURL string `json:"thumbnail_url" gorm:"size:500;default:''"`

	Status               MatchStatus `json:"status" gorm:"size:20;not null;index"`
	ReminderSent         bool        `json:"reminder_sent" gorm:"not null"`
	LiveNotificationSent bool        `json:"live_notification_sent" gorm:"not null"`
	IsActive             bool        `json:"is_active" gorm:"not null;index"`

	// Set while one sender owns the matching notification
	ReminderClaimedUntil *time.Time `json:"-"`
	LiveClaimedUntil     *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID and the initial status
func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MatchStatusNotStarted
	}
	return nil
}

// Image returns the first opponent image available, used as the notification picture
func (m *Match) Image() string {
	if m.Opponent1Img != "" {
		return m.Opponent1Img
	}
	return m.Opponent2Img
}

// Fixture renders "home VS away"
func (m *Match) Fixture() string {
	return m.Opponent1Name + " VS " + m.Opponent2Name
}

// IsLiveAt reports whether t falls inside the two-hour broadcast window of the match
func (m *Match) IsLiveAt(t time.Time) bool {
	return !t.Before(m.MatchTime) && !t.After(m.MatchTime.Add(2*time.Hour))
}
