// Package report emits call lifecycle events to the logging backend. The
// reporter is fire-and-forget: a failed webhook is logged and swallowed, it
// never raises out of the call path or delays teardown.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lyraro/voice-agent/internal/session"
)

// Lifecycle event types.
const (
	EventCallStarted = "call_started"
	EventCallEnded   = "call_ended"
)

// StartedPayload accompanies a call_started event.
type StartedPayload struct {
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
}

// EndedPayload accompanies a call_ended event.
type EndedPayload struct {
	Transcript          string                `json:"transcript"`
	ConversationHistory []session.Turn        `json:"conversation_history"`
	CollectedData       session.CollectedData `json:"collected_data"`
	DurationSeconds     float64               `json:"duration_seconds"`
}

type envelope struct {
	EventType string    `json:"event_type"`
	CallID    string    `json:"call_id"`
	AgentID   string    `json:"agent_id,omitempty"`
	CompanyID string    `json:"company_id,omitempty"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Reporter posts lifecycle events to the webhook backend.
type Reporter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewReporter creates a Reporter. An empty baseURL disables reporting (events
// are logged locally only), which keeps local setups without a backend
// working.
func NewReporter(baseURL string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Report sends one lifecycle event. All failures are swallowed after logging.
func (r *Reporter) Report(ctx context.Context, eventType string, sess *session.CallSession, payload any) {
	if r.baseURL == "" {
		r.logger.Info("webhook backend not configured, skipping report", "event", eventType, "call_id", sess.ID)
		return
	}

	body, err := json.Marshal(envelope{
		EventType: eventType,
		CallID:    sess.ID,
		AgentID:   sess.Config.AgentID,
		CompanyID: sess.Config.CompanyID,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		r.logger.Warn("webhook marshal failed", "event", eventType, "call_id", sess.ID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/call-webhook", bytes.NewReader(body))
	if err != nil {
		r.logger.Warn("webhook request failed", "event", eventType, "call_id", sess.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("webhook unreachable", "event", eventType, "call_id", sess.ID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("webhook bad status", "event", eventType, "call_id", sess.ID, "status", resp.StatusCode)
		return
	}
	r.logger.Info("webhook sent", "event", eventType, "call_id", sess.ID)
}

// Ended builds the call_ended payload from the final session state.
func Ended(sess *session.CallSession, endedAt time.Time) EndedPayload {
	return EndedPayload{
		Transcript:          sess.Transcript(),
		ConversationHistory: sess.History(),
		CollectedData:       sess.Collected(),
		DurationSeconds:     sess.Duration(endedAt).Seconds(),
	}
}
