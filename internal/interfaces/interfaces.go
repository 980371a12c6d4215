package interfaces

import (
	"context"
	"io"
)

// Message is a single entry in the message list sent to a chat completion backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLM is the text-generation interface. Implementations should be swappable.
type LLM interface {
	// Chat sends the full message list (system prompt first, then the
	// conversation so far) and returns the completion text.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// TTS is the text-to-speech interface. The voice identifier comes from the
// per-call agent configuration.
type TTS interface {
	// Speak converts text into audio bytes.
	Speak(ctx context.Context, text, voiceID string) ([]byte, error)
	// SpeakStream writes audio for the given text to w as it is produced.
	// Implementations that can stream should provide this for low-latency playback.
	SpeakStream(ctx context.Context, text, voiceID string, w io.Writer) error
}

// TranscriptEvent is one recognizer result. Only final events carry committed
// text; interim events exist for observability and are never acted upon.
type TranscriptEvent struct {
	Text       string
	IsFinal    bool
	Confidence float32
}

// STTConfig selects the recognizer model and audio format for one session.
type STTConfig struct {
	Model          string
	Language       string
	Punctuate      bool
	InterimResults bool
	Encoding       string
	SampleRate     int
}

// STTSession is one live recognition stream bound to a single call.
type STTSession interface {
	// SendAudio forwards raw audio bytes to the recognizer.
	SendAudio(data []byte) error
	// Transcripts delivers recognition events. The channel is closed when the
	// session ends.
	Transcripts() <-chan TranscriptEvent
	Close() error
}

// STT creates per-call recognition sessions.
type STT interface {
	NewSession(ctx context.Context, cfg STTConfig) (STTSession, error)
}
