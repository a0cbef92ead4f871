package eventlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/meltforce/gymview/internal/models"
	"github.com/meltforce/gymview/internal/view"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestSQLiteAppendAssignsSequence verifies per-user monotonic sequence
// numbers across users.
func TestSQLiteAppendAssignsSequence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		seq, err := store.Append(ctx, "alice", view.NewSessionEnded("s1"))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if seq != int64(i) {
			t.Errorf("alice seq = %d, want %d", seq, i)
		}
	}

	seq, err := store.Append(ctx, "bob", view.NewSessionEnded("s2"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if seq != 1 {
		t.Errorf("bob seq = %d, want 1 (independent stream)", seq)
	}
}

// TestSQLiteReadSince verifies ordered reads with offset and limit, and that
// the JSON payload round-trips.
func TestSQLiteReadSince(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	events := []view.Envelope{
		view.NewSessionStarted("s1", models.SessionProperties{
			MuscleGroupKeys:   []string{"legs"},
			IntendedIntensity: 0.7,
		}),
		view.NewExerciseObserved("s1", models.Exercise{Name: "squat", Intensity: models.Float64Ptr(0.7)}),
		view.NewSessionEnded("s1"),
	}
	for _, ev := range events {
		if _, err := store.Append(ctx, "alice", ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.ReadSince(ctx, "alice", 0, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	for i, e := range got {
		if e.Seq != int64(i+1) {
			t.Errorf("got[%d].Seq = %d, want %d", i, e.Seq, i+1)
		}
		if e.Envelope.Kind != events[i].Kind {
			t.Errorf("got[%d].Kind = %q, want %q", i, e.Envelope.Kind, events[i].Kind)
		}
	}
	if got[1].Envelope.Exercise == nil || got[1].Envelope.Exercise.Name != "squat" {
		t.Errorf("exercise payload lost: %+v", got[1].Envelope.Exercise)
	}

	tail, err := store.ReadSince(ctx, "alice", 1, 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tail) != 1 || tail[0].Seq != 2 {
		t.Errorf("ReadSince(1, limit 1) = %+v, want single seq-2 event", tail)
	}
}

// TestSQLitePersistsAcrossReopen verifies the log survives close and reopen,
// which eviction-and-replay relies on.
func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if _, err := store.Append(ctx, "alice", view.NewSessionEnded("s1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	events, err := reopened.ReadSince(ctx, "alice", 0, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events after reopen = %d, want 1", len(events))
	}
}
