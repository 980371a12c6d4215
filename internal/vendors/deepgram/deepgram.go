// Package deepgram adapts Deepgram's streaming recognition websocket to the
// STT interface. One websocket session exists per call; the orchestrator only
// acts on final transcripts.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lyraro/voice-agent/internal/interfaces"
)

const defaultBaseURL = "wss://api.deepgram.com/v1/listen"

type provider struct {
	apiKey  string
	baseURL string
}

// New returns a Deepgram STT provider against the hosted API.
func New(apiKey string) interfaces.STT {
	return NewWithBaseURL(apiKey, "")
}

// NewWithBaseURL allows overriding the websocket base URL, mainly for tests.
func NewWithBaseURL(apiKey, baseURL string) interfaces.STT {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &provider{apiKey: apiKey, baseURL: baseURL}
}

func (p *provider) NewSession(ctx context.Context, cfg interfaces.STTConfig) (interfaces.STTSession, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse deepgram url: %w", err)
	}
	q := u.Query()
	if cfg.Model != "" {
		q.Set("model", cfg.Model)
	}
	if cfg.Language != "" {
		q.Set("language", cfg.Language)
	}
	q.Set("punctuate", strconv.FormatBool(cfg.Punctuate))
	q.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	if cfg.Encoding != "" {
		q.Set("encoding", cfg.Encoding)
	}
	if cfg.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial deepgram: %w", err)
	}

	s := &sttSession{
		conn:        conn,
		transcripts: make(chan interfaces.TranscriptEvent, 16),
	}
	go s.readLoop()
	return s, nil
}

type sttSession struct {
	conn        *websocket.Conn
	writeMu     sync.Mutex
	transcripts chan interfaces.TranscriptEvent
	closeOnce   sync.Once
}

// deepgramResult is the subset of the streaming response we consume.
type deepgramResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float32 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (s *sttSession) readLoop() {
	defer close(s.transcripts)
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var res deepgramResult
		if err := json.Unmarshal(message, &res); err != nil {
			continue
		}
		if res.Type != "" && res.Type != "Results" {
			continue
		}
		if len(res.Channel.Alternatives) == 0 {
			continue
		}
		alt := res.Channel.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		s.transcripts <- interfaces.TranscriptEvent{
			Text:       alt.Transcript,
			IsFinal:    res.IsFinal,
			Confidence: alt.Confidence,
		}
	}
}

func (s *sttSession) SendAudio(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("send audio to deepgram: %w", err)
	}
	return nil
}

func (s *sttSession) Transcripts() <-chan interfaces.TranscriptEvent {
	return s.transcripts
}

func (s *sttSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		// best effort: ask the server to flush and close the stream
		_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
