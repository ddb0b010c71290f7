// Package store archives produced event sets in SQLite so past calls can be
// listed and re-read.
//
// Store is safe for concurrent use. SaveSet replaces any earlier archive of
// the same call atomically.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/auditx/auditx-pipeline/events"
)

var ErrNotFound = errors.New("call not found")

type Store struct {
	db *sql.DB
}

// CallSummary is one row of the call listing.
type CallSummary struct {
	CallID         string    `json:"call_id" yaml:"call_id"`
	GeneratedAt    time.Time `json:"generated_at" yaml:"generated_at"`
	RulePolicy     string    `json:"rule_policy" yaml:"rule_policy"`
	LLMEnabled     bool      `json:"llm_enabled" yaml:"llm_enabled"`
	TotalEvents    int       `json:"total_events" yaml:"total_events"`
	HighRiskEvents int       `json:"high_risk_events" yaml:"high_risk_events"`
}

// EventRow is the indexed projection of one archived event.
type EventRow struct {
	Seq       int    `json:"seq" yaml:"seq"`
	Type      string `json:"event_type" yaml:"event_type"`
	Sentence  int    `json:"sentence_index" yaml:"sentence_index"`
	RiskLevel string `json:"risk_level" yaml:"risk_level"`
	Source    string `json:"analysis_source" yaml:"analysis_source"`
}

// NewStore opens (creating if needed) the database at path, along with its
// parent directory, and applies the schema.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store wal: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calls (
		call_id TEXT PRIMARY KEY,
		generated_at DATETIME NOT NULL,
		rule_policy TEXT NOT NULL,
		llm_enabled INTEGER NOT NULL DEFAULT 0,
		total_events INTEGER NOT NULL DEFAULT 0,
		high_risk_events INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calls_generated ON calls(generated_at DESC);

	CREATE TABLE IF NOT EXISTS events (
		call_id TEXT NOT NULL REFERENCES calls(call_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		sentence_index INTEGER NOT NULL,
		risk_level TEXT,
		analysis_source TEXT,
		PRIMARY KEY (call_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// SaveSet archives set, replacing any previous archive of the same call.
func (s *Store) SaveSet(ctx context.Context, set events.Set) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("store encode: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE call_id = ?`, set.CallID); err != nil {
		return fmt.Errorf("store clear events: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO calls (call_id, generated_at, rule_policy, llm_enabled, total_events, high_risk_events, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			generated_at = excluded.generated_at,
			rule_policy = excluded.rule_policy,
			llm_enabled = excluded.llm_enabled,
			total_events = excluded.total_events,
			high_risk_events = excluded.high_risk_events,
			payload = excluded.payload`,
		set.CallID, set.GeneratedAt.UTC(), set.RulePolicy, set.LLMEnabled,
		set.Summary.TotalEvents, set.Summary.HighRiskEvents, string(payload))
	if err != nil {
		return fmt.Errorf("store save call: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (call_id, seq, event_type, sentence_index, risk_level, analysis_source)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store prepare: %w", err)
	}
	defer stmt.Close()

	for i, ev := range set.Events {
		var risk, source sql.NullString
		if ev.Analysis != nil {
			risk = sql.NullString{String: ev.Analysis.RiskLevel, Valid: true}
			source = sql.NullString{String: ev.Analysis.Source, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, set.CallID, i, string(ev.Type), ev.Sentence, risk, source); err != nil {
			return fmt.Errorf("store save event %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListCalls returns the most recently generated calls first. limit <= 0
// means no limit.
func (s *Store) ListCalls(ctx context.Context, limit int) ([]CallSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT call_id, generated_at, rule_policy, llm_enabled, total_events, high_risk_events
		FROM calls
		ORDER BY generated_at DESC, call_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store list: %w", err)
	}
	defer rows.Close()

	var out []CallSummary
	for rows.Next() {
		var c CallSummary
		if err := rows.Scan(&c.CallID, &c.GeneratedAt, &c.RulePolicy, &c.LLMEnabled, &c.TotalEvents, &c.HighRiskEvents); err != nil {
			return nil, fmt.Errorf("store list scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Payload returns the archived EventSet document of a call.
func (s *Store) Payload(ctx context.Context, callID string) (json.RawMessage, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM calls WHERE call_id = ?`, callID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, callID)
	}
	if err != nil {
		return nil, fmt.Errorf("store payload: %w", err)
	}
	return json.RawMessage(payload), nil
}

// Events returns the archived event rows of a call in output order.
func (s *Store) Events(ctx context.Context, callID string) ([]EventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, event_type, sentence_index, COALESCE(risk_level, ''), COALESCE(analysis_source, '')
		FROM events WHERE call_id = ? ORDER BY seq`, callID)
	if err != nil {
		return nil, fmt.Errorf("store events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(&r.Seq, &r.Type, &r.Sentence, &r.RiskLevel, &r.Source); err != nil {
			return nil, fmt.Errorf("store events scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
