package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/meltforce/gymview/internal/view"
)

// MemoryStore is an in-process event log for tests and dev mode. Safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]PersistedEvent
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]PersistedEvent)}
}

// Append stores the event with the next sequence number for the user.
func (s *MemoryStore) Append(_ context.Context, userID string, ev view.Envelope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := int64(len(s.streams[userID])) + 1
	s.streams[userID] = append(s.streams[userID], PersistedEvent{
		Seq:        seq,
		UserID:     userID,
		Envelope:   ev,
		RecordedAt: time.Now().UTC(),
	})
	return seq, nil
}

// ReadSince returns events with seq > afterSeq in ascending order.
func (s *MemoryStore) ReadSince(_ context.Context, userID string, afterSeq int64, limit int) ([]PersistedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[userID]
	if afterSeq >= int64(len(stream)) {
		return nil, nil
	}
	events := stream[afterSeq:]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	out := make([]PersistedEvent, len(events))
	copy(out, events)
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
