package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config contains runtime configuration and vendor selection for the agent
// worker and the demo backend.
type Config struct {
	// Vendor keys: e.g. "deepgram", "elevenlabs", "openai"
	STTVendor string
	TTSVendor string
	LLMVendor string

	// LiveKit transport
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string

	// Vendor credentials and overrides
	DeepgramAPIKey     string
	DeepgramBaseURL    string
	ElevenLabsAPIKey   string
	ElevenLabsBaseURL  string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string

	// Configuration/logging backend
	EdgeFunctionBaseURL string
	WebhookBaseURL      string

	// Demo backend
	DatabasePath string
	BackendPort  string

	// Timeout for the blocking network calls on the dialogue path.
	RequestTimeout time.Duration
}

// Load constructs a Config from environment variables, falling back to a .env
// file in the working directory when present. Environment always wins.
func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // no .env present is fine
	v.AutomaticEnv()

	v.SetDefault("STT_VENDOR", "deepgram")
	v.SetDefault("TTS_VENDOR", "elevenlabs")
	v.SetDefault("LLM_VENDOR", "openai")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("EDGE_FUNCTION_BASE_URL", "http://localhost:8080/functions/v1")
	v.SetDefault("DATABASE_PATH", "data/voice-agent.db")
	v.SetDefault("BACKEND_PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)

	cfg := &Config{
		STTVendor:           v.GetString("STT_VENDOR"),
		TTSVendor:           v.GetString("TTS_VENDOR"),
		LLMVendor:           v.GetString("LLM_VENDOR"),
		LiveKitURL:          v.GetString("LIVEKIT_URL"),
		LiveKitAPIKey:       v.GetString("LIVEKIT_API_KEY"),
		LiveKitAPISecret:    v.GetString("LIVEKIT_API_SECRET"),
		DeepgramAPIKey:      v.GetString("DEEPGRAM_API_KEY"),
		DeepgramBaseURL:     v.GetString("DEEPGRAM_BASE_URL"),
		ElevenLabsAPIKey:    v.GetString("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL:   v.GetString("ELEVENLABS_BASE_URL"),
		OpenAIAPIKey:        v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
		EdgeFunctionBaseURL: v.GetString("EDGE_FUNCTION_BASE_URL"),
		WebhookBaseURL:      v.GetString("WEBHOOK_BASE_URL"),
		DatabasePath:        v.GetString("DATABASE_PATH"),
		BackendPort:         v.GetString("BACKEND_PORT"),
		RequestTimeout:      time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
	}

	// The lifecycle webhook defaults to the same backend that serves the
	// config lookup.
	if cfg.WebhookBaseURL == "" {
		cfg.WebhookBaseURL = cfg.EdgeFunctionBaseURL
	}
	return cfg
}
