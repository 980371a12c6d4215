package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lyraro/voice-agent/internal/interfaces"
	"github.com/lyraro/voice-agent/internal/session"
)

const extractPrompt = `Du bist ein Datenextraktions-Assistent. Unten steht das Protokoll eines Telefonats zwischen einem Telefonassistenten (assistant) und einem Anrufer (user). Extrahiere die genannten Auftragsdaten.

Antworte NUR mit einem JSON-Objekt mit exakt diesen Feldern (fehlende Angaben leer lassen):
{"customer_name":"","callback_number":"","address":"","problem_type":"","work_description":"","urgency":"","requested_date":"","requested_time":"","callback_requested":false}`

// ExtractCollected runs one structured-extraction completion over the final
// history and stores the result on the session. It is best effort: any
// failure leaves the collected data untouched and is returned for logging
// only, never to delay teardown.
func ExtractCollected(ctx context.Context, llm interfaces.LLM, sess *session.CallSession) error {
	if sess.Len() < 2 {
		// greeting-only calls have nothing to extract
		return nil
	}

	messages := []interfaces.Message{
		{Role: "system", Content: extractPrompt},
		{Role: "user", Content: sess.Transcript()},
	}
	raw, err := llm.Chat(ctx, messages)
	if err != nil {
		return fmt.Errorf("extraction completion: %w", err)
	}

	var data session.CollectedData
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &data); err != nil {
		return fmt.Errorf("parse extraction result: %w", err)
	}
	sess.SetCollected(data)
	return nil
}

// stripCodeFence removes a markdown fence some models wrap JSON output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
