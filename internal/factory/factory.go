// Package factory constructs vendor implementations from runtime config.
package factory

import (
	"errors"

	"github.com/lyraro/voice-agent/internal/config"
	"github.com/lyraro/voice-agent/internal/interfaces"
	"github.com/lyraro/voice-agent/internal/vendors/deepgram"
	"github.com/lyraro/voice-agent/internal/vendors/elevenlabs"
	"github.com/lyraro/voice-agent/internal/vendors/openai"
)

func NewSTT(cfg *config.Config) (interfaces.STT, error) {
	switch cfg.STTVendor {
	case "deepgram":
		return deepgram.NewWithBaseURL(cfg.DeepgramAPIKey, cfg.DeepgramBaseURL), nil
	default:
		return nil, errors.New("unknown stt vendor: " + cfg.STTVendor)
	}
}

func NewTTS(cfg *config.Config) (interfaces.TTS, error) {
	switch cfg.TTSVendor {
	case "elevenlabs":
		return elevenlabs.NewWithBaseURL(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL), nil
	default:
		return nil, errors.New("unknown tts vendor: " + cfg.TTSVendor)
	}
}

func NewLLM(cfg *config.Config) (interfaces.LLM, error) {
	switch cfg.LLMVendor {
	case "openai":
		return openai.NewWithBaseURLModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, errors.New("unknown llm vendor: " + cfg.LLMVendor)
	}
}
