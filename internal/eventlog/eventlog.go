// Package eventlog provides the append-only per-user domain event log. The
// view is a read-only consumer: it polls ReadSince from its last seen
// sequence number and folds whatever arrived. Three backends share the Store
// contract: Postgres for deployments, SQLite for single-node setups, and an
// in-memory store for tests and dev mode.
package eventlog

import (
	"context"
	"time"

	"github.com/meltforce/gymview/internal/view"
)

// PersistedEvent is one durable log entry. Seq increases by 1 per user with
// no gaps; the fold relies on reading events in ascending Seq order.
type PersistedEvent struct {
	Seq        int64         `json:"seq"`
	UserID     string        `json:"user_id"`
	Envelope   view.Envelope `json:"envelope"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Store is the event log contract. Append assigns the next per-user sequence
// number; ReadSince returns events with Seq > afterSeq in ascending order,
// at most limit at a time (limit <= 0 means no limit).
type Store interface {
	Append(ctx context.Context, userID string, ev view.Envelope) (int64, error)
	ReadSince(ctx context.Context, userID string, afterSeq int64, limit int) ([]PersistedEvent, error)
	Close() error
}
