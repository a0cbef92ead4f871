package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/meltforce/gymview/internal/view"
)

// SQLiteStore keeps the event log in a single SQLite file. Suited to
// single-node deployments where running Postgres is not worth it.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the event log database at the given path,
// creating parent directories as needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS events (
		user_id     TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		payload     TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, seq)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating events table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append stores the event with the next sequence number for the user.
func (s *SQLiteStore) Append(ctx context.Context, userID string, ev view.Envelope) (int64, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("encoding event: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (user_id, seq, payload)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ? FROM events WHERE user_id = ?`,
		userID, string(payload), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("appending event: %w", err)
	}

	var assigned int64
	err = s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE user_id = ?`, userID,
	).Scan(&assigned)
	if err != nil {
		return 0, fmt.Errorf("reading assigned seq: %w", err)
	}
	return assigned, nil
}

// ReadSince returns events with seq > afterSeq in ascending order.
func (s *SQLiteStore) ReadSince(ctx context.Context, userID string, afterSeq int64, limit int) ([]PersistedEvent, error) {
	q := `SELECT seq, payload, recorded_at FROM events
	      WHERE user_id = ? AND seq > ? ORDER BY seq`
	args := []any{userID, afterSeq}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	defer rows.Close()

	var events []PersistedEvent
	for rows.Next() {
		e := PersistedEvent{UserID: userID}
		var payload, recorded string
		if err := rows.Scan(&e.Seq, &payload, &recorded); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		// SQLite stores CURRENT_TIMESTAMP as UTC text.
		if ts, err := time.Parse("2006-01-02 15:04:05", recorded); err == nil {
			e.RecordedAt = ts.UTC()
		}
		if err := json.Unmarshal([]byte(payload), &e.Envelope); err != nil {
			return nil, fmt.Errorf("decoding event %d for user %s: %w", e.Seq, userID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
