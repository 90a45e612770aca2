package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quocanhngo/sportcast/pkg/logger"
	"go.uber.org/zap"
)

// EdgeConfig points at the hosted push function
type EdgeConfig struct {
	URL        string
	Key        string
	HTTPClient *http.Client
}

// EdgeDispatcher calls the hosted notification function over HTTP.
// Request:  POST {tokens, notification:{title, body}, data} with a bearer key.
// Response: {success, failure}.
type EdgeDispatcher struct {
	url    string
	key    string
	client *http.Client
	log    *zap.Logger
}

type edgeRequest struct {
	Tokens       []string          `json:"tokens"`
	Notification edgeNotification  `json:"notification"`
	Data         map[string]string `json:"data"`
}

type edgeNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewEdgeDispatcher creates a dispatcher for the hosted function
func NewEdgeDispatcher(cfg EdgeConfig) (*EdgeDispatcher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("edge dispatcher: url is required")
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("edge dispatcher: key is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &EdgeDispatcher{
		url:    cfg.URL,
		key:    cfg.Key,
		client: client,
		log:    logger.WithModule("dispatch.edge"),
	}, nil
}

// Dispatch posts one batch. Any non-2xx status is reported as
// {success: 0, failure: len(tokens)} even if the function delivered some pushes.
func (d *EdgeDispatcher) Dispatch(ctx context.Context, tokens []string, msg Message) (Result, error) {
	failed := Result{Success: 0, Failure: len(tokens)}

	data := msg.Data
	if data == nil {
		data = map[string]string{}
	}
	body, err := json.Marshal(edgeRequest{
		Tokens:       tokens,
		Notification: edgeNotification{Title: msg.Title, Body: msg.Body},
		Data:         data,
	})
	if err != nil {
		return failed, fmt.Errorf("%w: encode request: %v", ErrDispatchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return failed, fmt.Errorf("%w: build request: %v", ErrDispatchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+d.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return failed, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed, fmt.Errorf("%w: status %d", ErrDispatchFailed, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The call went through; only the counts are unknown.
		d.log.Warn("undecodable dispatch response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return Result{}, nil
	}

	d.log.Info("dispatch completed",
		zap.Int("tokens", len(tokens)),
		zap.Int("success", result.Success),
		zap.Int("failure", result.Failure),
	)
	return result, nil
}
