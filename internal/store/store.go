// Package store persists agent profiles and call logs for the demo backend.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lyraro/voice-agent/internal/agentconfig"
)

type Store struct {
	DB *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			company_id TEXT,
			company_name TEXT NOT NULL,
			industry TEXT NOT NULL,
			phone_number TEXT NOT NULL UNIQUE,
			greeting TEXT,
			base_prompt TEXT,
			voice_id TEXT,
			opening_hours TEXT,
			forwarding_number TEXT,
			emergency_number TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			agent_id TEXT,
			from_number TEXT,
			to_number TEXT,
			started_at INTEGER,
			ended_at INTEGER,
			duration_seconds REAL,
			transcript TEXT,
			collected_data TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS call_events (
			id TEXT PRIMARY KEY,
			call_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT,
			created_at INTEGER
		);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.Exec(q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func genID() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// UpsertAgent stores an agent profile keyed by its inbound phone number.
func (s *Store) UpsertAgent(cfg agentconfig.AgentConfig, phoneNumber string) (string, error) {
	if phoneNumber == "" {
		return "", fmt.Errorf("phone_number required")
	}
	id := cfg.AgentID
	if id == "" {
		var err error
		if id, err = genID(); err != nil {
			return "", err
		}
	}
	_, err := s.DB.Exec(`INSERT INTO agents(id, company_id, company_name, industry, phone_number, greeting, base_prompt, voice_id, opening_hours, forwarding_number, emergency_number)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(phone_number) DO UPDATE SET
			company_id=excluded.company_id,
			company_name=excluded.company_name,
			industry=excluded.industry,
			greeting=excluded.greeting,
			base_prompt=excluded.base_prompt,
			voice_id=excluded.voice_id,
			opening_hours=excluded.opening_hours,
			forwarding_number=excluded.forwarding_number,
			emergency_number=excluded.emergency_number`,
		id, cfg.CompanyID, cfg.CompanyName, cfg.Industry, phoneNumber, cfg.Greeting,
		cfg.BasePrompt, cfg.VoiceID, cfg.OpeningHours, cfg.ForwardingNumber, cfg.EmergencyNumber)
	if err != nil {
		return "", fmt.Errorf("upsert agent: %w", err)
	}
	return id, nil
}

// FindAgentByNumber resolves the agent profile for a called number. A miss
// returns sql.ErrNoRows.
func (s *Store) FindAgentByNumber(phoneNumber string) (agentconfig.AgentConfig, error) {
	var cfg agentconfig.AgentConfig
	row := s.DB.QueryRow(`SELECT id, company_id, company_name, industry, greeting, base_prompt, voice_id, opening_hours, forwarding_number, emergency_number
		FROM agents WHERE phone_number = ?`, phoneNumber)
	err := row.Scan(&cfg.AgentID, &cfg.CompanyID, &cfg.CompanyName, &cfg.Industry, &cfg.Greeting,
		&cfg.BasePrompt, &cfg.VoiceID, &cfg.OpeningHours, &cfg.ForwardingNumber, &cfg.EmergencyNumber)
	if err != nil {
		return agentconfig.AgentConfig{}, err
	}
	return cfg, nil
}

// RecordCallStarted creates the call row when the lifecycle webhook reports
// call_started.
func (s *Store) RecordCallStarted(callID, agentID, fromNumber, toNumber string, startedAt time.Time) error {
	_, err := s.DB.Exec(`INSERT INTO calls(id, agent_id, from_number, to_number, started_at) VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO NOTHING`,
		callID, agentID, fromNumber, toNumber, startedAt.Unix())
	if err != nil {
		return fmt.Errorf("record call started: %w", err)
	}
	return nil
}

// RecordCallEnded finalizes the call row with transcript, collected data and
// duration.
func (s *Store) RecordCallEnded(callID, transcript, collectedJSON string, durationSeconds float64, endedAt time.Time) error {
	res, err := s.DB.Exec(`UPDATE calls SET ended_at = ?, duration_seconds = ?, transcript = ?, collected_data = ? WHERE id = ?`,
		endedAt.Unix(), durationSeconds, transcript, collectedJSON, callID)
	if err != nil {
		return fmt.Errorf("record call ended: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// call_ended without a preceding call_started still gets a row
		_, err = s.DB.Exec(`INSERT INTO calls(id, ended_at, duration_seconds, transcript, collected_data) VALUES(?,?,?,?,?)`,
			callID, endedAt.Unix(), durationSeconds, transcript, collectedJSON)
		if err != nil {
			return fmt.Errorf("record call ended: %w", err)
		}
	}
	return nil
}

// AppendEvent stores the raw lifecycle event payload for auditing.
func (s *Store) AppendEvent(callID, eventType, payload string) error {
	id, err := genID()
	if err != nil {
		return err
	}
	if _, err := s.DB.Exec(`INSERT INTO call_events(id, call_id, event_type, payload, created_at) VALUES(?,?,?,?,?)`,
		id, callID, eventType, payload, time.Now().Unix()); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// CountEvents reports how many events of one type exist for a call.
func (s *Store) CountEvents(callID, eventType string) (int, error) {
	var n int
	row := s.DB.QueryRow(`SELECT COUNT(*) FROM call_events WHERE call_id = ? AND event_type = ?`, callID, eventType)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
