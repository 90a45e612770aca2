package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// fcmBatchSize is the multicast limit imposed by FCM
const fcmBatchSize = 500

// multicastSender is the subset of *messaging.Client used for sending
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMDispatcher sends pushes straight to Firebase Cloud Messaging
type FCMDispatcher struct {
	client multicastSender
	log    *zap.Logger
}

// NewFCMDispatcher creates a dispatcher from a service account file
func NewFCMDispatcher(ctx context.Context, credentialsFile string) (*FCMDispatcher, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("fcm dispatcher: credentials file is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return newFCMDispatcher(client), nil
}

func newFCMDispatcher(client multicastSender) *FCMDispatcher {
	return &FCMDispatcher{
		client: client,
		log:    logger.WithModule("dispatch.fcm"),
	}
}

// Dispatch sends the message in multicast batches. A batch that errors counts
// every one of its tokens as failed; the call errors only if no batch went through.
func (d *FCMDispatcher) Dispatch(ctx context.Context, tokens []string, msg Message) (Result, error) {
	var (
		result  Result
		sent    bool
		lastErr error
	)

	for start := 0; start < len(tokens); start += fcmBatchSize {
		end := start + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		br, err := d.client.SendEachForMulticast(ctx, buildMulticast(batch, msg))
		if err != nil {
			d.log.Warn("fcm batch failed", zap.Int("tokens", len(batch)), zap.Error(err))
			result.Failure += len(batch)
			lastErr = err
			continue
		}
		sent = true
		result.Success += br.SuccessCount
		result.Failure += br.FailureCount

		if br.FailureCount > 0 {
			for idx, resp := range br.Responses {
				if !resp.Success {
					d.log.Debug("fcm token failure", zap.String("token", batch[idx]), zap.Error(resp.Error))
				}
			}
		}
	}

	if !sent && lastErr != nil {
		return Result{Success: 0, Failure: len(tokens)}, fmt.Errorf("%w: %v", ErrDispatchFailed, lastErr)
	}
	return result, nil
}

func buildMulticast(tokens []string, msg Message) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.Data["image"],
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}
