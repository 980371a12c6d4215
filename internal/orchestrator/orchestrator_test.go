package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyraro/voice-agent/internal/agentconfig"
	"github.com/lyraro/voice-agent/internal/interfaces"
	"github.com/lyraro/voice-agent/internal/report"
	"github.com/lyraro/voice-agent/internal/session"
)

type scriptedLLM struct {
	mu       sync.Mutex
	requests [][]interfaces.Message
	reply    string
}

func (f *scriptedLLM) Chat(_ context.Context, messages []interfaces.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make([]interfaces.Message, len(messages))
	copy(snapshot, messages)
	f.requests = append(f.requests, snapshot)
	return f.reply, nil
}

func (f *scriptedLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type speakRecorder struct {
	mu     sync.Mutex
	spoken []string
}

func (s *speakRecorder) speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *speakRecorder) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

type webhookRecorder struct {
	mu     sync.Mutex
	events []map[string]any
}

func (w *webhookRecorder) handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var evt map[string]any
		_ = json.NewDecoder(r.Body).Decode(&evt)
		w.mu.Lock()
		w.events = append(w.events, evt)
		w.mu.Unlock()
	})
}

func (w *webhookRecorder) all() []map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]map[string]any, len(w.events))
	copy(out, w.events)
	return out
}

func embeddedMeta() RoomMetadata {
	return RoomMetadata{
		FromNumber: "+4917612345",
		ToNumber:   "+4930123456",
		AgentConfig: &agentconfig.AgentConfig{
			CompanyName: "Elektro Müller",
			Industry:    "elektro",
			Greeting:    "Guten Tag, Elektro Müller, wie kann ich helfen?",
		},
	}
}

func TestCallFlow_EndToEnd(t *testing.T) {
	hooks := &webhookRecorder{}
	srv := httptest.NewServer(hooks.handler())
	defer srv.Close()

	llm := &scriptedLLM{reply: "Seit wann ist das Licht aus?"}
	speaker := &speakRecorder{}
	o := New(
		agentconfig.NewResolver("http://127.0.0.1:1", nil), // must not be consulted
		llm,
		report.NewReporter(srv.URL, nil),
		nil,
	)

	call := o.StartCall(context.Background(), "room-1", embeddedMeta(), speaker.speak)

	// the greeting is recorded verbatim as the first assistant turn, without
	// touching the LLM
	turns := call.Session.History()
	require.Len(t, turns, 1)
	assert.Equal(t, session.RoleAssistant, turns[0].Role)
	assert.Equal(t, "Guten Tag, Elektro Müller, wie kann ich helfen?", turns[0].Content)
	assert.Equal(t, 0, llm.callCount())
	assert.Equal(t, []string{"Guten Tag, Elektro Müller, wie kann ich helfen?"}, speaker.all())

	// call_started fired before any dialogue turn
	events := hooks.all()
	require.Len(t, events, 1)
	assert.Equal(t, "call_started", events[0]["event_type"])
	payload := events[0]["payload"].(map[string]any)
	assert.Equal(t, "+4917612345", payload["from_number"])
	assert.Equal(t, "+4930123456", payload["to_number"])

	call.HandleUtterance("Mein Licht geht nicht mehr")
	require.Eventually(t, func() bool { return call.Session.Len() == 3 }, 2*time.Second, 10*time.Millisecond)

	// the first generation request carried system + that one user turn
	llm.mu.Lock()
	first := llm.requests[0]
	llm.mu.Unlock()
	require.Len(t, first, 2)
	assert.Equal(t, "system", first[0].Role)
	assert.Equal(t, "user", first[1].Role)

	assert.Equal(t, []string{
		"Guten Tag, Elektro Müller, wie kann ich helfen?",
		"Seit wann ist das Licht aus?",
	}, speaker.all())

	call.End()
	assert.Equal(t, session.StateEnded, call.Session.State())

	events = hooks.all()
	require.Len(t, events, 2)
	assert.Equal(t, "call_ended", events[1]["event_type"])
	ended := events[1]["payload"].(map[string]any)
	transcript := ended["transcript"].(string)
	assert.Len(t, strings.Split(transcript, "\n"), call.Session.Len())
	history := ended["conversation_history"].([]any)
	assert.Len(t, history, 3)
}

func TestCallEnded_FiresExactlyOnce(t *testing.T) {
	hooks := &webhookRecorder{}
	srv := httptest.NewServer(hooks.handler())
	defer srv.Close()

	o := New(nil, &scriptedLLM{reply: "{}"}, report.NewReporter(srv.URL, nil), nil)
	call := o.StartCall(context.Background(), "room-2", embeddedMeta(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			call.End()
		}()
	}
	wg.Wait()

	var ended int
	for _, evt := range hooks.all() {
		if evt["event_type"] == "call_ended" {
			ended++
		}
	}
	assert.Equal(t, 1, ended)
}

func TestFilteredUtteranceProducesNoReply(t *testing.T) {
	hooks := &webhookRecorder{}
	srv := httptest.NewServer(hooks.handler())
	defer srv.Close()

	llm := &scriptedLLM{reply: "Hallo"}
	speaker := &speakRecorder{}
	o := New(nil, llm, report.NewReporter(srv.URL, nil), nil)
	call := o.StartCall(context.Background(), "room-3", embeddedMeta(), speaker.speak)

	call.HandleUtterance("Привет как дела сегодня")
	call.HandleUtterance("Mein Licht geht nicht mehr")
	require.Eventually(t, func() bool { return call.Session.Len() == 3 }, 2*time.Second, 10*time.Millisecond)

	// only greeting + the one real reply were spoken, the hallucinated
	// transcript left no trace in the history
	assert.Len(t, speaker.all(), 2)
	turns := call.Session.History()
	assert.Equal(t, "Mein Licht geht nicht mehr", turns[1].Content)
	call.End()
}

func TestUtteranceAfterEndIsIgnored(t *testing.T) {
	llm := &scriptedLLM{reply: "{}"}
	o := New(nil, llm, report.NewReporter("", nil), nil)
	call := o.StartCall(context.Background(), "room-4", embeddedMeta(), nil)
	call.End()

	before := call.Session.Len()
	call.HandleUtterance("Hallo?")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, call.Session.Len())
}

func TestStartCall_LookupFallback(t *testing.T) {
	// no embedded config and an unreachable backend: the call still starts
	// with the built-in defaults
	o := New(agentconfig.NewResolver("http://127.0.0.1:1", nil), &scriptedLLM{reply: "{}"}, report.NewReporter("", nil), nil)
	call := o.StartCall(context.Background(), "room-5", RoomMetadata{FromNumber: "a", ToNumber: "b"}, nil)
	defer call.End()

	assert.Equal(t, "LYRARO Demo", call.Session.Config.CompanyName)
	assert.Equal(t, "Guten Tag, wie kann ich Ihnen helfen?", call.Session.History()[0].Content)
}

func TestParseRoomMetadata(t *testing.T) {
	meta := ParseRoomMetadata(`{"from_number":"+491","to_number":"+4930"}`)
	assert.Equal(t, "+491", meta.FromNumber)
	assert.Equal(t, "+4930", meta.ToNumber)
	assert.Nil(t, meta.AgentConfig)

	meta = ParseRoomMetadata("not json")
	assert.Equal(t, "unknown", meta.FromNumber)
	assert.Equal(t, "unknown", meta.ToNumber)

	meta = ParseRoomMetadata("")
	assert.Equal(t, "unknown", meta.ToNumber)
}

// guards the engine/orchestrator contract: a turn mutates the history by
// exactly two entries, so queued utterances keep strict ordering
func TestQueuedUtterancesPreserveOrder(t *testing.T) {
	llm := &scriptedLLM{reply: "Verstanden."}
	o := New(nil, llm, report.NewReporter("", nil), nil)
	call := o.StartCall(context.Background(), "room-6", embeddedMeta(), nil)

	call.HandleUtterance("Erstens")
	call.HandleUtterance("Zweitens")
	call.HandleUtterance("Drittens")
	require.Eventually(t, func() bool { return call.Session.Len() == 7 }, 2*time.Second, 10*time.Millisecond)

	var users []string
	for _, turn := range call.Session.History() {
		if turn.Role == session.RoleUser {
			users = append(users, turn.Content)
		}
	}
	assert.Equal(t, []string{"Erstens", "Zweitens", "Drittens"}, users)
	call.End()
}
