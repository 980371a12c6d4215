package livekit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/lyraro/voice-agent/internal/interfaces"
)

const playbackSampleRate = 16000

// RoomClient joins a LiveKit room as the agent participant. Remote audio is
// piped into the streaming recognizer; synthesized replies are published on a
// local audio track. Call teardown is signaled through Done.
type RoomClient struct {
	url      string
	token    string
	roomName string
	identity string

	stt     interfaces.STT
	tts     interfaces.TTS
	sttConf interfaces.STTConfig
	logger  *slog.Logger

	conn       *websocket.Conn
	pc         *webrtc.PeerConnection
	audioTrack *webrtc.TrackLocalStaticSample
	sttSession interfaces.STTSession

	// OnUtterance receives committed (final) transcripts. Set before Connect.
	OnUtterance func(text string)

	metadataOnce sync.Once
	metadata     chan string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}

	writeMu sync.Mutex
}

// NewRoomClient prepares a client for one room/call.
func NewRoomClient(url, token, roomName, identity string, stt interfaces.STT, tts interfaces.TTS, sttConf interfaces.STTConfig, logger *slog.Logger) *RoomClient {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RoomClient{
		url:      url,
		token:    token,
		roomName: roomName,
		identity: identity,
		stt:      stt,
		tts:      tts,
		sttConf:  sttConf,
		logger:   logger,
		metadata: make(chan string, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Connect joins the room: websocket signaling plus a WebRTC peer connection
// with one published audio track for the agent's voice.
func (rc *RoomClient) Connect(ctx context.Context) error {
	wsURL := rc.url
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[5:]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[4:]
	}
	wsURL = strings.TrimSuffix(wsURL, "/") + "/rtc?access_token=" + rc.token

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial signaling websocket: %w", err)
	}
	rc.conn = conn

	sttSession, err := rc.stt.NewSession(ctx, rc.sttConf)
	if err != nil {
		conn.Close()
		return fmt.Errorf("open recognition session: %w", err)
	}
	rc.sttSession = sttSession
	go rc.transcriptLoop()

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	if err != nil {
		rc.teardown()
		return fmt.Errorf("create peer connection: %w", err)
	}
	rc.pc = pc

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() == webrtc.RTPCodecTypeAudio {
			rc.logger.Info("remote audio track", "room", rc.roomName, "track", track.ID())
			go rc.pumpAudio(track)
		}
	})

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"agent-audio",
		rc.identity,
	)
	if err != nil {
		rc.teardown()
		return fmt.Errorf("create audio track: %w", err)
	}
	rc.audioTrack = audioTrack
	if _, err := pc.AddTrack(audioTrack); err != nil {
		rc.teardown()
		return fmt.Errorf("add audio track: %w", err)
	}

	go rc.handleMessages()
	rc.logger.Info("joined room", "room", rc.roomName, "identity", rc.identity)
	return nil
}

// Metadata delivers the room metadata from the join message, or an empty
// string if the room carries none before the given context expires.
func (rc *RoomClient) Metadata(ctx context.Context) string {
	select {
	case meta := <-rc.metadata:
		return meta
	case <-ctx.Done():
		return ""
	case <-rc.done:
		return ""
	}
}

// Done is closed when the room connection ends, however it ends.
func (rc *RoomClient) Done() <-chan struct{} {
	return rc.done
}

// handleMessages processes signaling messages until the connection drops.
func (rc *RoomClient) handleMessages() {
	defer rc.teardown()
	for {
		_, message, err := rc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				rc.logger.Warn("signaling websocket error", "room", rc.roomName, "error", err)
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		msgType, _ := msg["type"].(string)
		switch msgType {
		case "join":
			if room, ok := msg["room"].(map[string]any); ok {
				if meta, ok := room["metadata"].(string); ok {
					rc.metadataOnce.Do(func() { rc.metadata <- meta })
				}
			}
		case "participant_disconnected", "room_disconnected", "leave":
			rc.logger.Info("room closing", "room", rc.roomName, "signal", msgType)
			return
		}
	}
}

// pumpAudio forwards remote RTP payloads into the recognizer. Codec handling
// is the recognizer's job; we only move bytes.
func (rc *RoomClient) pumpAudio(track *webrtc.TrackRemote) {
	for {
		select {
		case <-rc.ctx.Done():
			return
		default:
		}

		pkt, _, err := track.ReadRTP()
		if err != nil {
			if err != io.EOF {
				rc.logger.Warn("read rtp", "room", rc.roomName, "error", err)
			}
			return
		}
		if rc.sttSession == nil {
			continue
		}
		if err := rc.sttSession.SendAudio(pkt.Payload); err != nil {
			rc.logger.Warn("forward audio to recognizer", "room", rc.roomName, "error", err)
			return
		}
	}
}

// transcriptLoop surfaces committed transcripts to the orchestrator. Interim
// results are ignored.
func (rc *RoomClient) transcriptLoop() {
	for evt := range rc.sttSession.Transcripts() {
		if !evt.IsFinal {
			continue
		}
		if rc.OnUtterance != nil {
			rc.OnUtterance(evt.Text)
		}
	}
}

// PublishSpeech synthesizes text with the given voice and plays it into the
// room in 100ms sample chunks.
func (rc *RoomClient) PublishSpeech(ctx context.Context, text, voiceID string) error {
	if rc.audioTrack == nil {
		return fmt.Errorf("audio track not initialized")
	}

	audio, err := rc.tts.Speak(ctx, text, voiceID)
	if err != nil {
		return fmt.Errorf("synthesize reply: %w", err)
	}

	rc.writeMu.Lock()
	defer rc.writeMu.Unlock()

	// 16-bit samples at the playback rate, 100ms per chunk
	chunkSize := playbackSampleRate * 2 / 10
	for i := 0; i < len(audio); i += chunkSize {
		end := min(i+chunkSize, len(audio))
		sample := media.Sample{Data: audio[i:end], Duration: 100 * time.Millisecond}
		if err := rc.audioTrack.WriteSample(sample); err != nil {
			return fmt.Errorf("write audio sample: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// Disconnect leaves the room and releases the recognizer session.
func (rc *RoomClient) Disconnect() {
	rc.teardown()
}

func (rc *RoomClient) teardown() {
	rc.closeOnce.Do(func() {
		rc.cancel()
		if rc.sttSession != nil {
			_ = rc.sttSession.Close()
		}
		if rc.pc != nil {
			_ = rc.pc.Close()
		}
		if rc.conn != nil {
			_ = rc.conn.Close()
		}
		close(rc.done)
	})
}
