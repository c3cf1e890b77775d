// Package remote talks to the classroom server: idempotent outcome
// upserts, a lightweight reachability probe, and the emergency
// notification side-channel.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultProbeTimeout   = 3 * time.Second

	healthPath = "/api/health"
	upsertPath = "/api/robot/outcomes"
	notifyPath = "/api/robot/notify"
	statusPath = "/api/robot/status"
)

// Client is an HTTP client for the remote store.
type Client struct {
	baseURL string
	robotID string
	http    *http.Client
	probe   *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, robotID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		robotID: robotID,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		probe:   &http.Client{Timeout: defaultProbeTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// outcomePayload is the wire form of an outcome upsert.
type outcomePayload struct {
	RobotID        string    `json:"robot_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	StudentID      string    `json:"student_id"`
	SessionID      string    `json:"session_id"`
	Seq            int64     `json:"seq"`
	Action         string    `json:"action"`
	PER            float64   `json:"per"`
	Score          float64   `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// Upsert submits one outcome record. The idempotency key makes retries
// of the same record indistinguishable from a single write at the
// server. Errors are classified transient or permanent by status code.
func (c *Client) Upsert(ctx context.Context, rec model.OutcomeRecord, idempotencyKey string) error {
	payload := outcomePayload{
		RobotID:        c.robotID,
		IdempotencyKey: idempotencyKey,
		StudentID:      rec.StudentID,
		SessionID:      rec.SessionID,
		Seq:            rec.Seq,
		Action:         rec.ActionTaken.String(),
		PER:            rec.PER,
		Score:          rec.OverallScore,
		CreatedAt:      rec.CreatedAt,
	}
	return c.post(ctx, upsertPath, payload)
}

// Probe checks whether the server is reachable.
func (c *Client) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		metrics.UpdateRemoteOnline(false)
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		metrics.UpdateRemoteOnline(false)
		return false
	}
	drain(resp)
	online := resp.StatusCode == http.StatusOK
	metrics.UpdateRemoteOnline(online)
	return online
}

// Notify delivers an emergency notification. The caller owns retry
// policy; a single call is one attempt.
func (c *Client) Notify(ctx context.Context, severity, message string, recipients []string) error {
	return c.post(ctx, notifyPath, map[string]any{
		"robot_id":   c.robotID,
		"severity":   severity,
		"message":    message,
		"recipients": recipients,
	})
}

// UpdateStatus pushes a compact progress status. Best effort: callers
// never queue these.
func (c *Client) UpdateStatus(ctx context.Context, studentID string, avgScore float64) error {
	return c.post(ctx, statusPath, map[string]any{
		"robot_id":   c.robotID,
		"student_id": studentID,
		"avg_score":  avgScore,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.Invalid(fmt.Errorf("encode %s payload: %w", path, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return model.Invalid(fmt.Errorf("build %s request: %w", path, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Transient(fmt.Errorf("%s: %w", path, err))
	}
	drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return model.Transient(fmt.Errorf("%s: server returned %d", path, resp.StatusCode))
	default:
		return model.Permanent(fmt.Errorf("%s: server returned %d", path, resp.StatusCode))
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithRequestTimeout sets the timeout for upserts and notifications.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithProbeTimeout sets the timeout for reachability probes.
func WithProbeTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.probe.Timeout = d
		}
	}
}
