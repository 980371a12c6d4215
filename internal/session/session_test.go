package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lyraro/voice-agent/internal/agentconfig"
)

func TestHistoryOrderAndSnapshot(t *testing.T) {
	s := New("call-1", agentconfig.Default())
	s.MarkGreetingSent("Guten Tag")
	s.AppendUser("Mein Licht geht nicht mehr")
	s.AppendAssistant("Das tut mir leid. Seit wann besteht das Problem?")

	turns := s.History()
	assert.Len(t, turns, 3)
	assert.Equal(t, RoleAssistant, turns[0].Role)
	assert.Equal(t, "Guten Tag", turns[0].Content)
	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, RoleAssistant, turns[2].Role)

	// snapshot is detached from the live history
	turns[0].Content = "mutated"
	assert.Equal(t, "Guten Tag", s.History()[0].Content)
}

func TestTranscriptLineCount(t *testing.T) {
	s := New("call-2", agentconfig.Default())
	s.MarkGreetingSent("Hallo")
	s.AppendUser("Heizung kaputt")
	s.AppendAssistant("Verstanden.")

	lines := strings.Split(s.Transcript(), "\n")
	assert.Len(t, lines, s.Len())
	assert.Equal(t, "assistant: Hallo", lines[0])
	assert.Equal(t, "user: Heizung kaputt", lines[1])
}

func TestStateTransitions(t *testing.T) {
	s := New("", agentconfig.Default())
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateConfigured, s.State())

	s.MarkGreetingSent("Hallo")
	assert.Equal(t, StateGreetingSent, s.State())

	s.SetState(StateListening)
	assert.Equal(t, StateListening, s.State())

	s.SetState(StateEnded)
	// ended is terminal
	s.SetState(StateListening)
	assert.Equal(t, StateEnded, s.State())
}

func TestDuration(t *testing.T) {
	s := New("call-3", agentconfig.Default())
	d := s.Duration(s.StartedAt.Add(90 * time.Second))
	assert.Equal(t, 90*time.Second, d)
}

func TestCollectedData(t *testing.T) {
	s := New("call-4", agentconfig.Default())
	assert.Equal(t, CollectedData{}, s.Collected())

	s.SetCollected(CollectedData{CustomerName: "Müller", Urgency: "hoch"})
	got := s.Collected()
	assert.Equal(t, "Müller", got.CustomerName)
	assert.Equal(t, "hoch", got.Urgency)
}
