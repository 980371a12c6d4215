// Package session owns all per-call mutable state: the ordered turn history,
// the structured data collected during the dialogue, and the call's position
// in its lifecycle. One CallSession exists per phone call and is never shared
// between calls.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lyraro/voice-agent/internal/agentconfig"
)

// Role of a turn in the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in the conversation. Insertion order is
// conversational order and is the entire memory passed to the LLM each turn.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectedData is the structured service request filled in as the dialogue
// progresses. All fields are optional.
type CollectedData struct {
	CustomerName      string `json:"customer_name,omitempty"`
	CallbackNumber    string `json:"callback_number,omitempty"`
	Address           string `json:"address,omitempty"`
	ProblemType       string `json:"problem_type,omitempty"`
	WorkDescription   string `json:"work_description,omitempty"`
	Urgency           string `json:"urgency,omitempty"`
	RequestedDate     string `json:"requested_date,omitempty"`
	RequestedTime     string `json:"requested_time,omitempty"`
	CallbackRequested bool   `json:"callback_requested,omitempty"`
}

// State of a call at the orchestrator level.
type State int

const (
	StateInit State = iota
	StateConfigured
	StateGreetingSent
	StateListening
	StateResponding
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConfigured:
		return "configured"
	case StateGreetingSent:
		return "greeting_sent"
	case StateListening:
		return "listening"
	case StateResponding:
		return "responding"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// CallSession aggregates the per-call state. Methods are safe for use from
// the recognition callback and the dialogue loop goroutine.
type CallSession struct {
	ID        string
	Config    agentconfig.AgentConfig
	StartedAt time.Time

	mu        sync.Mutex
	state     State
	history   []Turn
	collected CollectedData
}

// New creates a session for one accepted call. An empty callID gets a
// generated one.
func New(callID string, cfg agentconfig.AgentConfig) *CallSession {
	if callID == "" {
		callID = uuid.NewString()
	}
	return &CallSession{
		ID:        callID,
		Config:    cfg,
		StartedAt: time.Now(),
		state:     StateConfigured,
		history:   make([]Turn, 0, 16),
	}
}

// State returns the current lifecycle state.
func (s *CallSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session. Transitions out of StateEnded are ignored.
func (s *CallSession) SetState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return
	}
	s.state = next
}

// MarkGreetingSent records the verbatim greeting as the first assistant turn.
// The greeting never goes through the LLM so the configured first utterance
// is guaranteed even if the generation backend is unreachable.
func (s *CallSession) MarkGreetingSent(greeting string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Turn{Role: RoleAssistant, Content: greeting, Timestamp: time.Now()})
	s.state = StateGreetingSent
}

// AppendUser appends a caller turn.
func (s *CallSession) AppendUser(text string) {
	s.append(RoleUser, text)
}

// AppendAssistant appends an agent turn.
func (s *CallSession) AppendAssistant(text string) {
	s.append(RoleAssistant, text)
}

func (s *CallSession) append(role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Turn{Role: role, Content: text, Timestamp: time.Now()})
}

// History returns a snapshot of the ordered turn history.
func (s *CallSession) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of turns recorded so far.
func (s *CallSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Collected returns the structured data gathered so far.
func (s *CallSession) Collected() CollectedData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collected
}

// SetCollected replaces the structured data record.
func (s *CallSession) SetCollected(data CollectedData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collected = data
}

// Transcript renders the history as role-labeled lines, one per turn.
func (s *CallSession) Transcript() string {
	turns := s.History()
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return strings.Join(lines, "\n")
}

// Duration reports the call length from session creation until now.
func (s *CallSession) Duration(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
