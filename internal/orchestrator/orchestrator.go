// Package orchestrator runs the per-call session: it resolves configuration,
// speaks the greeting, feeds committed utterances through the dialogue engine
// one at a time, and reports the call lifecycle exactly once.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lyraro/voice-agent/internal/agentconfig"
	"github.com/lyraro/voice-agent/internal/dialogue"
	"github.com/lyraro/voice-agent/internal/interfaces"
	"github.com/lyraro/voice-agent/internal/prompt"
	"github.com/lyraro/voice-agent/internal/report"
	"github.com/lyraro/voice-agent/internal/session"
)

// utteranceQueueSize bounds how many committed utterances may wait while a
// turn is in flight. Callers speaking faster than the backend responds get
// their oldest queued utterances processed first; overflow is dropped.
const utteranceQueueSize = 32

// teardownTimeout bounds the end-of-call work (extraction + final report).
const teardownTimeout = 15 * time.Second

// RoomMetadata is the call-start structure delivered by the transport layer.
// A pre-resolved config embedded here wins over the network lookup.
type RoomMetadata struct {
	FromNumber  string                   `json:"from_number"`
	ToNumber    string                   `json:"to_number"`
	AgentConfig *agentconfig.AgentConfig `json:"agent_config,omitempty"`
}

// ParseRoomMetadata decodes the metadata JSON attached to a room. Malformed
// or absent metadata yields unknown numbers; the call proceeds regardless.
func ParseRoomMetadata(raw string) RoomMetadata {
	meta := RoomMetadata{FromNumber: "unknown", ToNumber: "unknown"}
	if raw == "" {
		return meta
	}
	var parsed RoomMetadata
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return meta
	}
	if parsed.FromNumber == "" {
		parsed.FromNumber = "unknown"
	}
	if parsed.ToNumber == "" {
		parsed.ToNumber = "unknown"
	}
	return parsed
}

// SpeakFunc hands reply text to the speech-synthesis boundary.
type SpeakFunc func(ctx context.Context, text string) error

// Orchestrator creates call sessions. One Orchestrator serves many concurrent
// calls; all mutable state lives on the Call.
type Orchestrator struct {
	resolver *agentconfig.Resolver
	llm      interfaces.LLM
	reporter *report.Reporter
	logger   *slog.Logger
}

// New wires the orchestrator's collaborators.
func New(resolver *agentconfig.Resolver, llm interfaces.LLM, reporter *report.Reporter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{resolver: resolver, llm: llm, reporter: reporter, logger: logger}
}

// Call is one live phone call. It owns the session state and guarantees at
// most one dialogue turn in flight at a time.
type Call struct {
	Session *session.CallSession

	o          *Orchestrator
	engine     *dialogue.Engine
	speak      SpeakFunc
	utterances chan string
	quit       chan struct{}
	loopDone   chan struct{}
	endOnce    sync.Once
}

// StartCall accepts a call: resolves the config (embedded metadata config
// wins, otherwise network lookup with default fallback), reports
// call_started, speaks the configured greeting verbatim, and starts the
// dialogue loop.
func (o *Orchestrator) StartCall(ctx context.Context, callID string, meta RoomMetadata, speak SpeakFunc) *Call {
	var cfg agentconfig.AgentConfig
	if meta.AgentConfig != nil {
		cfg = agentconfig.ApplyDefaults(*meta.AgentConfig)
	} else {
		cfg = o.resolver.Resolve(ctx, meta.ToNumber, meta.FromNumber)
	}

	sess := session.New(callID, cfg)
	logger := o.logger.With("call_id", sess.ID, "company", cfg.CompanyName)
	logger.Info("call received", "from", meta.FromNumber, "to", meta.ToNumber)

	if speak == nil {
		speak = func(context.Context, string) error { return nil }
	}
	c := &Call{
		Session:    sess,
		o:          o,
		engine:     dialogue.New(o.llm, prompt.Compose(cfg), logger),
		speak:      speak,
		utterances: make(chan string, utteranceQueueSize),
		quit:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}

	// call_started fires before any dialogue turn
	o.reporter.Report(ctx, report.EventCallStarted, sess, report.StartedPayload{
		FromNumber: meta.FromNumber,
		ToNumber:   meta.ToNumber,
	})

	// The greeting is emitted directly from config, never through the LLM,
	// so the literal first utterance is guaranteed even if the generation
	// backend is unreachable.
	sess.MarkGreetingSent(cfg.Greeting)
	if err := c.speak(ctx, cfg.Greeting); err != nil {
		logger.Warn("greeting synthesis failed", "error", err)
	}
	sess.SetState(session.StateListening)

	go c.run(ctx, logger)
	return c
}

// run processes queued utterances sequentially. An utterance arriving while a
// turn is in flight waits in the queue, preserving turn order in the history.
func (c *Call) run(ctx context.Context, logger *slog.Logger) {
	defer close(c.loopDone)
	for {
		select {
		case <-c.quit:
			return
		case text := <-c.utterances:
			reply, ok := c.engine.HandleTurn(ctx, c.Session, text)
			if !ok {
				continue
			}
			if err := c.speak(ctx, reply); err != nil {
				logger.Warn("reply synthesis failed", "error", err)
			}
		}
	}
}

// HandleUtterance queues one committed utterance for processing. It never
// blocks the recognition path; overflow beyond the queue size is dropped.
func (c *Call) HandleUtterance(text string) {
	if c.Session.State() == session.StateEnded {
		return
	}
	select {
	case c.utterances <- text:
	default:
		c.o.logger.Warn("utterance queue full, dropping", "call_id", c.Session.ID)
	}
}

// End tears the call down: the in-flight turn (if any) finishes, the
// structured extraction runs best-effort, and call_ended is reported exactly
// once. Subsequent calls are no-ops, so a teardown racing an in-flight turn
// cannot double-fire the report.
func (c *Call) End() {
	c.endOnce.Do(func() {
		close(c.quit)
		<-c.loopDone
		c.Session.SetState(session.StateEnded)
		endedAt := time.Now()

		// teardown gets its own deadline: the transport context is usually
		// already canceled at this point
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()

		if err := dialogue.ExtractCollected(ctx, c.o.llm, c.Session); err != nil {
			c.o.logger.Warn("collected-data extraction failed", "call_id", c.Session.ID, "error", err)
		}
		c.o.reporter.Report(ctx, report.EventCallEnded, c.Session, report.Ended(c.Session, endedAt))
		c.o.logger.Info("call ended", "call_id", c.Session.ID, "turns", c.Session.Len(), "duration", c.Session.Duration(endedAt))
	})
}
