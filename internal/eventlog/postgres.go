package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meltforce/gymview/internal/view"
)

// PostgresStore keeps the event log in a Postgres events table.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgres creates a store backed by a pgx connection pool.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Append stores the event with the next sequence number for the user.
// Sequence assignment assumes the single-writer-per-entity contract upheld
// by the placement layer; the (user_id, seq) primary key rejects anything
// that violates it.
func (s *PostgresStore) Append(ctx context.Context, userID string, ev view.Envelope) (int64, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return 0, fmt.Errorf("encoding event: %w", err)
	}

	var seq int64
	err = s.Pool.QueryRow(ctx,
		`INSERT INTO events (user_id, seq, payload)
		 SELECT $1, COALESCE(MAX(seq), 0) + 1, $2 FROM events WHERE user_id = $1
		 RETURNING seq`,
		userID, payload,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("appending event: %w", err)
	}
	return seq, nil
}

// ReadSince returns events with seq > afterSeq in ascending order.
func (s *PostgresStore) ReadSince(ctx context.Context, userID string, afterSeq int64, limit int) ([]PersistedEvent, error) {
	q := `SELECT seq, payload, recorded_at FROM events
	      WHERE user_id = $1 AND seq > $2 ORDER BY seq`
	args := []any{userID, afterSeq}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	defer rows.Close()

	var events []PersistedEvent
	for rows.Next() {
		e := PersistedEvent{UserID: userID}
		var payload []byte
		if err := rows.Scan(&e.Seq, &payload, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Envelope); err != nil {
			return nil, fmt.Errorf("decoding event %d for user %s: %w", e.Seq, userID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
