package hosting

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/models"
	"github.com/meltforce/gymview/internal/view"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{
		PollInterval: 5 * time.Millisecond,
		IdleTimeout:  time.Hour,
		ReapInterval: time.Hour,
	}
}

func seedSession(t *testing.T, store eventlog.Store, userID, sessionID string) {
	t.Helper()
	ctx := context.Background()
	events := []view.Envelope{
		view.NewSessionStarted(sessionID, models.SessionProperties{
			MuscleGroupKeys:   []string{"legs"},
			IntendedIntensity: 0.7,
		}),
		view.NewExerciseObserved(sessionID, models.Exercise{Name: "squat", Intensity: models.Float64Ptr(0.7)}),
		view.NewExerciseObserved(sessionID, models.Exercise{Name: "squat", Intensity: models.Float64Ptr(0.7)}),
	}
	for _, ev := range events {
		if _, err := store.Append(ctx, userID, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

// TestQueryAnswersFromReplay verifies that the first query against a fresh
// instance sees the full persisted history.
func TestQueryAnswersFromReplay(t *testing.T) {
	store := eventlog.NewMemory()
	seedSession(t, store, "alice", "s1")

	r := NewRegistry(store, testLogger(), testOptions())
	defer r.Close()

	examples, err := r.ExamplesForSession(context.Background(), "alice", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(examples) == 0 || examples[0].Name != "squat" {
		t.Errorf("examples = %+v, want squat first", examples)
	}
}

// TestQueryStrictSessionMatch verifies the typed no-examples failure crosses
// the hosting layer intact.
func TestQueryStrictSessionMatch(t *testing.T) {
	store := eventlog.NewMemory()
	seedSession(t, store, "alice", "s1")

	r := NewRegistry(store, testLogger(), testOptions())
	defer r.Close()

	_, err := r.ExamplesForSession(context.Background(), "alice", "other")
	if !errors.Is(err, view.ErrNoExamples) {
		t.Errorf("error = %v, want ErrNoExamples", err)
	}
}

// TestRefreshFoldsNewEvents verifies the periodic poll picks up events
// appended after the instance was created, within the staleness bound.
func TestRefreshFoldsNewEvents(t *testing.T) {
	store := eventlog.NewMemory()
	r := NewRegistry(store, testLogger(), testOptions())
	defer r.Close()

	ctx := context.Background()

	// Touch the instance first so it exists before the events land.
	if set, err := r.Suggestions(ctx, "alice"); err != nil || len(set.Suggestions) != 0 {
		t.Fatalf("initial suggestions = %+v, %v; want empty", set, err)
	}

	if _, err := store.Append(ctx, "alice", view.NewSuggestionsSet(models.SuggestionSet{Suggestions: []string{"lunge"}})); err != nil {
		t.Fatalf("append: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		set, err := r.Suggestions(ctx, "alice")
		if err != nil {
			t.Fatalf("suggestions: %v", err)
		}
		if len(set.Suggestions) == 1 && set.Suggestions[0] == "lunge" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("refresh never folded the new event; last = %+v", set)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestEvictionAndRebuild verifies that an evicted instance is rebuilt from
// the persisted history on the next request.
func TestEvictionAndRebuild(t *testing.T) {
	store := eventlog.NewMemory()
	seedSession(t, store, "alice", "s1")

	opts := testOptions()
	opts.IdleTimeout = time.Millisecond
	r := NewRegistry(store, testLogger(), opts)
	defer r.Close()

	ctx := context.Background()
	if _, err := r.Examples(ctx, "alice", nil); err != nil {
		t.Fatalf("first query: %v", err)
	}
	if got := r.LiveInstances(); got != 1 {
		t.Fatalf("live instances = %d, want 1", got)
	}

	// Simulate the reaper firing after the idle window.
	time.Sleep(2 * time.Millisecond)
	r.evictIdle(time.Now())
	if got := r.LiveInstances(); got != 0 {
		t.Fatalf("live instances after eviction = %d, want 0", got)
	}

	examples, err := r.ExamplesForSession(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("post-eviction query: %v", err)
	}
	if len(examples) == 0 || examples[0].Name != "squat" {
		t.Errorf("rebuilt examples = %+v, want squat first", examples)
	}
	if got := r.LiveInstances(); got != 1 {
		t.Errorf("live instances after rebuild = %d, want 1", got)
	}
}

// TestUsersIsolated verifies two users' views never share state.
func TestUsersIsolated(t *testing.T) {
	store := eventlog.NewMemory()
	seedSession(t, store, "alice", "s1")

	r := NewRegistry(store, testLogger(), testOptions())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.ExamplesForSession(ctx, "bob", "s1"); !errors.Is(err, view.ErrNoExamples) {
		t.Errorf("bob sees alice's session: err = %v, want ErrNoExamples", err)
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, string, view.Envelope) (int64, error) {
	return 0, errors.New("append unsupported")
}

func (failingStore) ReadSince(context.Context, string, int64, int) ([]eventlog.PersistedEvent, error) {
	return nil, errors.New("log unavailable")
}

func (failingStore) Close() error { return nil }

// TestReplayFailureSurfacesAsError verifies that a broken log yields a query
// error instead of a hang or silent empty state.
func TestReplayFailureSurfacesAsError(t *testing.T) {
	r := NewRegistry(failingStore{}, testLogger(), testOptions())
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := r.Examples(ctx, "alice", nil); err == nil {
		t.Errorf("query against broken log succeeded, want error")
	}
}
