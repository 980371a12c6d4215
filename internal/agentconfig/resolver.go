package agentconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Resolver looks up the AgentConfig for a called number from the
// configuration backend. It never fails: on any error the built-in default
// config is returned, because the call has to proceed regardless.
type Resolver struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewResolver creates a Resolver against the given backend base URL. A single
// attempt with a bounded timeout is made per call; there are no retries.
func NewResolver(baseURL string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

type lookupRequest struct {
	ToNumber   string `json:"to_number"`
	FromNumber string `json:"from_number"`
}

type lookupResponse struct {
	Config *AgentConfig `json:"config"`
}

// Resolve fetches the config for the called/calling number pair.
func (r *Resolver) Resolve(ctx context.Context, toNumber, fromNumber string) AgentConfig {
	body, err := json.Marshal(lookupRequest{ToNumber: toNumber, FromNumber: fromNumber})
	if err != nil {
		return Default()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/get-agent-config", bytes.NewReader(body))
	if err != nil {
		r.logger.Warn("config lookup request failed", "error", err)
		return Default()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("config lookup unreachable, using defaults", "error", err)
		return Default()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("config lookup bad status, using defaults", "status", resp.StatusCode)
		return Default()
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		r.logger.Warn("config lookup malformed payload, using defaults", "error", err)
		return Default()
	}
	if out.Config == nil {
		r.logger.Warn("config lookup missing config field, using defaults")
		return Default()
	}
	return ApplyDefaults(*out.Config)
}
