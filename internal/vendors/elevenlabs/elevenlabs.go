// Package elevenlabs adapts the ElevenLabs HTTP synthesis API to the TTS
// interface.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lyraro/voice-agent/internal/interfaces"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultModel   = "eleven_turbo_v2_5"
)

type elevenLabsTTS struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New returns an ElevenLabs TTS adapter against the hosted API.
func New(apiKey string) interfaces.TTS {
	return NewWithBaseURL(apiKey, "")
}

// NewWithBaseURL allows overriding the API base URL, mainly for tests.
func NewWithBaseURL(apiKey, baseURL string) interfaces.TTS {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	// Synthesis of a short reply should be quick, but leave headroom for the
	// first-byte latency of the hosted API.
	return &elevenLabsTTS{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *elevenLabsTTS) post(ctx context.Context, url, text string) (*http.Response, error) {
	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: e.model})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to elevenlabs: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, string(b))
	}
	return resp, nil
}

func (e *elevenLabsTTS) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	resp, err := e.post(ctx, fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, voiceID), text)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	return audio, nil
}

// SpeakStream streams synthesized audio directly to w so playback can start
// before synthesis finishes.
func (e *elevenLabsTTS) SpeakStream(ctx context.Context, text, voiceID string, w io.Writer) error {
	resp, err := e.post(ctx, fmt.Sprintf("%s/text-to-speech/%s/stream", e.baseURL, voiceID), text)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("stream synthesis response: %w", err)
	}
	return nil
}
