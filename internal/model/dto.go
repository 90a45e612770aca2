package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Match DTOs ==========

type CreateMatchRequest struct {
	Title          string      `json:"title" binding:"required,max=255"`
	CategoryID     *uuid.UUID  `json:"category_id"`
	ChannelID      *uuid.UUID  `json:"channel_id"`
	Opponent1Name  string      `json:"opponent1_name" binding:"required,max=255"`
	Opponent1Image string      `json:"opponent1_image" binding:"max=500"`
	Opponent2Name  string      `json:"opponent2_name" binding:"required,max=255"`
	Opponent2Image string      `json:"opponent2_image" binding:"max=500"`
	MatchTime      time.Time   `json:"match_time" binding:"required"`
	VideoType      string      `json:"video_type"`
	LiveURL        string      `json:"live_url"`
	LiveURLLow     string      `json:"live_url_low"`
	LiveURLHigh    string      `json:"live_url_high"`
	ThumbnailURL   string      `json:"thumbnail_url"`
	Status         MatchStatus `json:"status" binding:"omitempty,oneof=not-started live ended"`
}

// UpdateMatchRequest carries a partial edit; nil fields are left untouched
type UpdateMatchRequest struct {
	Title          *string      `json:"title" binding:"omitempty,max=255"`
	CategoryID     *uuid.UUID   `json:"category_id"`
	ChannelID      *uuid.UUID   `json:"channel_id"`
	Opponent1Name  *string      `json:"opponent1_name" binding:"omitempty,max=255"`
	Opponent1Image *string      `json:"opponent1_image" binding:"omitempty,max=500"`
	Opponent2Name  *string      `json:"opponent2_name" binding:"omitempty,max=255"`
	Opponent2Image *string      `json:"opponent2_image" binding:"omitempty,max=500"`
	MatchTime      *time.Time   `json:"match_time"`
	VideoType      *string      `json:"video_type"`
	LiveURL        *string      `json:"live_url"`
	LiveURLLow     *string      `json:"live_url_low"`
	LiveURLHigh    *string      `json:"live_url_high"`
	ThumbnailURL   *string      `json:"thumbnail_url"`
	Status         *MatchStatus `json:"status" binding:"omitempty,oneof=not-started live ended"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// MatchView decorates a match for the timeline
type MatchView struct {
	Match
	IsLiveNow bool `json:"is_live_now"`
}

// TimelineDay groups the matches of one calendar date
type TimelineDay struct {
	Date    string      `json:"date"` // 2006-01-02
	Matches []MatchView `json:"matches"`
}

// ========== Notification DTOs ==========

type SendNotificationRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Message string `json:"message" binding:"required"`
}

// SendResult is the operator-facing outcome of a manual send
type SendResult struct {
	Success         bool   `json:"success"`
	RecipientsCount int    `json:"recipients_count"`
	FailureCount    int    `json:"failure_count"`
	Error           string `json:"error,omitempty"`
}

type NotificationStats struct {
	TotalUsers          int64             `json:"total_users"`
	RecentNotifications []NotificationLog `json:"recent_notifications"`
}

// ========== Dashboard DTOs ==========

type DashboardStats struct {
	Matches     int64 `json:"matches"`
	Categories  int64 `json:"categories"`
	Channels    int64 `json:"channels"`
	LiveMatches int64 `json:"live_matches"`
}

// TickReport summarises one lifecycle + retention pass
type TickReport struct {
	RemindersSent     int      `json:"reminders_sent"`
	LiveNotifications int      `json:"live_notifications"`
	MatchesEnded      int64    `json:"matches_ended"`
	Errors            []string `json:"errors,omitempty"`
}

// ========== Upload DTOs ==========

// UploadResponse is returned after a successful file upload
type UploadResponse struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

type PresignRequest struct {
	Folder      string `json:"folder" binding:"required,oneof=matches channels categories"`
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	PublicURL string `json:"public_url"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Dashboard event types
const (
	WSEventReminderSent       = "match.reminder_sent"
	WSEventMatchLive          = "match.live"
	WSEventMatchEnded         = "match.ended"
	WSEventNotificationSent   = "notification.sent"
	WSEventNotificationFailed = "notification.failed"
)

type MatchEvent struct {
	MatchID uuid.UUID   `json:"match_id"`
	Title   string      `json:"title"`
	Status  MatchStatus `json:"status"`
}

type MatchesEndedEvent struct {
	Count int64 `json:"count"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
