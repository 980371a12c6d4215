// The backend command serves the two call-center edge functions locally: the
// per-number agent-config lookup and the call lifecycle webhook sink.
package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lyraro/voice-agent/internal/agentconfig"
	"github.com/lyraro/voice-agent/internal/config"
	"github.com/lyraro/voice-agent/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	cfg := config.Load()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("create data dir", "error", err)
			os.Exit(1)
		}
	}
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	h := &handlers{store: st, logger: logger}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	fn := e.Group("/functions/v1")
	fn.POST("/get-agent-config", h.getAgentConfig)
	fn.POST("/call-webhook", h.callWebhook)
	e.POST("/agents", h.upsertAgent)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	addr := ":" + cfg.BackendPort
	logger.Info("backend listening", "addr", addr, "db", cfg.DatabasePath)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type handlers struct {
	store  *store.Store
	logger *slog.Logger
}

type lookupRequest struct {
	ToNumber   string `json:"to_number"`
	FromNumber string `json:"from_number"`
}

func (h *handlers) getAgentConfig(c echo.Context) error {
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}

	cfg, err := h.store.FindAgentByNumber(req.ToNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no agent for number"})
	}
	if err != nil {
		h.logger.Error("agent lookup", "to_number", req.ToNumber, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"config": agentconfig.ApplyDefaults(cfg)})
}

type webhookEnvelope struct {
	EventType string          `json:"event_type"`
	CallID    string          `json:"call_id"`
	AgentID   string          `json:"agent_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type startedPayload struct {
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
}

type endedPayload struct {
	Transcript      string          `json:"transcript"`
	CollectedData   json.RawMessage `json:"collected_data"`
	DurationSeconds float64         `json:"duration_seconds"`
}

func (h *handlers) callWebhook(c echo.Context) error {
	var evt webhookEnvelope
	if err := c.Bind(&evt); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}
	if evt.CallID == "" || evt.EventType == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event_type and call_id required"})
	}

	if err := h.store.AppendEvent(evt.CallID, evt.EventType, string(evt.Payload)); err != nil {
		h.logger.Error("append event", "call_id", evt.CallID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "persist failed"})
	}

	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	switch evt.EventType {
	case "call_started":
		var p startedPayload
		_ = json.Unmarshal(evt.Payload, &p)
		if err := h.store.RecordCallStarted(evt.CallID, evt.AgentID, p.FromNumber, p.ToNumber, ts); err != nil {
			h.logger.Error("record call started", "call_id", evt.CallID, "error", err)
		}
	case "call_ended":
		var p endedPayload
		_ = json.Unmarshal(evt.Payload, &p)
		if err := h.store.RecordCallEnded(evt.CallID, p.Transcript, string(p.CollectedData), p.DurationSeconds, ts); err != nil {
			h.logger.Error("record call ended", "call_id", evt.CallID, "error", err)
		}
	}

	h.logger.Info("webhook received", "event", evt.EventType, "call_id", evt.CallID)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type upsertAgentRequest struct {
	PhoneNumber string                  `json:"phone_number"`
	Config      agentconfig.AgentConfig `json:"config"`
}

func (h *handlers) upsertAgent(c echo.Context) error {
	var req upsertAgentRequest
	if err := c.Bind(&req); err != nil || req.PhoneNumber == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "phone_number and config required"})
	}
	id, err := h.store.UpsertAgent(req.Config, req.PhoneNumber)
	if err != nil {
		h.logger.Error("upsert agent", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "persist failed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"agent_id": id})
}
