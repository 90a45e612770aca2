package notification

import (
	"context"
	"errors"
)

var (
	// ErrNoRecipients is returned when no device token could be resolved
	ErrNoRecipients = errors.New("no FCM tokens")
	// ErrDispatchFailed wraps every transport or non-success response outcome
	ErrDispatchFailed = errors.New("notification dispatch failed")
)

// Message is the payload fanned out to every device token
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Type returns the type tag carried in the data payload
func (m Message) Type() string {
	if t := m.Data["type"]; t != "" {
		return t
	}
	return "general"
}

// Result holds the per-token counts reported by the dispatcher
type Result struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Dispatcher sends one batched push to a set of device tokens.
// A non-nil error means the batch must be treated as undelivered; the
// returned Result then reports zero successes.
type Dispatcher interface {
	Dispatch(ctx context.Context, tokens []string, msg Message) (Result, error)
}
