package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/agentrouter/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists dispatch records in a SQLite database so telemetry
// survives restarts. Records are stored as JSON documents in append order.
type SQLiteStore struct {
	db *sql.DB
}

var _ core.TelemetryStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and runs the schema
// migration. Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate telemetry db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dispatch_records (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			record     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_dispatch_records_session ON dispatch_records (session_id, seq);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append adds rec to the end of the session.
func (s *SQLiteStore) Append(sessionID string, rec core.DispatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal dispatch record: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO dispatch_records (session_id, created_at, record) VALUES (?, ?, ?)",
		sessionID, rec.Timestamp.UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("append dispatch record: %w", err)
	}
	return nil
}

// Read returns the session's records in append order. Unknown sessions yield
// an empty, non-nil slice.
func (s *SQLiteStore) Read(sessionID string) ([]core.DispatchRecord, error) {
	rows, err := s.db.Query("SELECT record FROM dispatch_records WHERE session_id = ? ORDER BY seq", sessionID)
	if err != nil {
		return nil, fmt.Errorf("read session %q: %w", sessionID, err)
	}
	defer rows.Close()

	out := make([]core.DispatchRecord, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec core.DispatchRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode dispatch record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sessions returns the known session ids in lexical order.
func (s *SQLiteStore) Sessions() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT session_id FROM dispatch_records ORDER BY session_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
