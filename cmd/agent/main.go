// The agent command joins a LiveKit room as the phone agent for one call:
// incoming audio is streamed to the recognizer, committed utterances run
// through the dialogue engine, and replies are synthesized into the room.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lyraro/voice-agent/internal/agentconfig"
	"github.com/lyraro/voice-agent/internal/config"
	"github.com/lyraro/voice-agent/internal/factory"
	"github.com/lyraro/voice-agent/internal/interfaces"
	"github.com/lyraro/voice-agent/internal/livekit"
	"github.com/lyraro/voice-agent/internal/orchestrator"
	"github.com/lyraro/voice-agent/internal/report"
)

const (
	tokenTTL       = time.Hour
	connectTimeout = 10 * time.Second
	metadataWait   = 5 * time.Second
)

func main() {
	roomName := flag.String("room", "", "LiveKit room to join (the inbound call)")
	identity := flag.String("identity", "voice-agent", "participant identity for the agent")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *roomName == "" {
		logger.Error("missing -room")
		os.Exit(1)
	}

	cfg := config.Load()
	if err := run(cfg, *roomName, *identity, logger); err != nil {
		logger.Error("agent exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, roomName, identity string, logger *slog.Logger) error {
	stt, err := factory.NewSTT(cfg)
	if err != nil {
		return err
	}
	tts, err := factory.NewTTS(cfg)
	if err != nil {
		return err
	}
	llm, err := factory.NewLLM(cfg)
	if err != nil {
		return err
	}

	token, err := livekit.AccessToken(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, roomName, identity, tokenTTL)
	if err != nil {
		return err
	}

	sttConf := interfaces.STTConfig{
		Model:          "nova-2",
		Language:       "de",
		Punctuate:      true,
		InterimResults: true,
		Encoding:       "linear16",
		SampleRate:     16000,
	}
	room := livekit.NewRoomClient(cfg.LiveKitURL, token, roomName, identity, stt, tts, sttConf, logger)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	defer cancelConnect()
	if err := room.Connect(connectCtx); err != nil {
		return err
	}
	defer room.Disconnect()

	metaCtx, cancelMeta := context.WithTimeout(context.Background(), metadataWait)
	meta := orchestrator.ParseRoomMetadata(room.Metadata(metaCtx))
	cancelMeta()

	resolver := agentconfig.NewResolver(cfg.EdgeFunctionBaseURL, logger)
	reporter := report.NewReporter(cfg.WebhookBaseURL, logger)
	orch := orchestrator.New(resolver, llm, reporter, logger)

	callCtx, cancelCall := context.WithCancel(context.Background())
	defer cancelCall()

	// Resolve the agent profile up front so the synthesis voice is fixed
	// before the greeting plays.
	agentCfg := agentconfig.ApplyDefaults(resolveConfig(callCtx, resolver, meta))
	meta.AgentConfig = &agentCfg

	call := orch.StartCall(callCtx, roomName, meta, func(ctx context.Context, text string) error {
		return room.PublishSpeech(ctx, text, agentCfg.VoiceID)
	})
	room.OnUtterance = call.HandleUtterance

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-room.Done():
		logger.Info("room closed", "room", roomName)
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
	}

	call.End()
	return nil
}

func resolveConfig(ctx context.Context, resolver *agentconfig.Resolver, meta orchestrator.RoomMetadata) agentconfig.AgentConfig {
	if meta.AgentConfig != nil {
		return *meta.AgentConfig
	}
	return resolver.Resolve(ctx, meta.ToNumber, meta.FromNumber)
}
