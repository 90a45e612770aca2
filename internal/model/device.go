package model

// UserDevice is the push-capable projection of a users row
type UserDevice struct {
	FCMToken string `json:"fcm_token"`
	Platform string `json:"platform"` // android, ios
}
