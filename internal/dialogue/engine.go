// Package dialogue drives single conversational turns against the
// text-generation backend.
package dialogue

import (
	"context"
	"log/slog"
	"time"

	"github.com/lyraro/voice-agent/internal/interfaces"
	"github.com/lyraro/voice-agent/internal/session"
	"github.com/lyraro/voice-agent/internal/transcript"
)

// FallbackReply is spoken when the generation backend fails. The caller must
// always receive a spoken response.
const FallbackReply = "Entschuldigung, das habe ich akustisch nicht verstanden. Könnten Sie das bitte wiederholen?"

// llmTimeout bounds the generation call on the critical dialogue path.
const llmTimeout = 15 * time.Second

// Engine orchestrates turns for one call. The system prompt is composed once
// at call start and reused on every turn.
type Engine struct {
	llm          interfaces.LLM
	systemPrompt string
	logger       *slog.Logger
}

// New creates an engine for one call session.
func New(llm interfaces.LLM, systemPrompt string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{llm: llm, systemPrompt: systemPrompt, logger: logger}
}

// HandleTurn processes one committed caller utterance and returns the text to
// speak back. Filtered-out input returns ok=false with no state mutation and
// no reply. Otherwise exactly one user and one assistant turn are appended,
// with the fallback apology substituted when generation fails.
func (e *Engine) HandleTurn(ctx context.Context, sess *session.CallSession, userText string) (reply string, ok bool) {
	if !transcript.IsAcceptable(userText) {
		e.logger.Debug("dropping implausible transcript", "call_id", sess.ID)
		return "", false
	}

	sess.SetState(session.StateResponding)
	sess.AppendUser(userText)

	reply = e.generate(ctx, sess)
	sess.AppendAssistant(reply)
	sess.SetState(session.StateListening)
	return reply, true
}

func (e *Engine) generate(ctx context.Context, sess *session.CallSession) string {
	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	reply, err := e.llm.Chat(ctx, e.messages(sess))
	if err != nil {
		// one attempt, no retry: the caller repeats themselves naturally
		e.logger.Warn("generation failed, using fallback reply", "call_id", sess.ID, "error", err)
		return FallbackReply
	}
	if reply == "" {
		return FallbackReply
	}
	return reply
}

// messages builds the request list: the system prompt followed by the turns
// in conversational order with their original roles. The leading greeting
// turn is skipped: the system prompt already pins the exact greeting and
// forbids greeting twice, so re-sending it only duplicates context.
func (e *Engine) messages(sess *session.CallSession) []interfaces.Message {
	history := sess.History()
	start := 0
	for start < len(history) && history[start].Role == session.RoleAssistant {
		start++
	}

	out := make([]interfaces.Message, 0, len(history)-start+1)
	out = append(out, interfaces.Message{Role: "system", Content: e.systemPrompt})
	for _, turn := range history[start:] {
		out = append(out, interfaces.Message{Role: string(turn.Role), Content: turn.Content})
	}
	return out
}
