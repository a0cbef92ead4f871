package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/hosting"
	"github.com/meltforce/gymview/internal/models"
	"github.com/meltforce/gymview/internal/shard"
)

const testAPIKey = "test-key-123"

func newTestServer(t *testing.T) (*Server, eventlog.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := eventlog.NewMemory()
	views := hosting.NewRegistry(store, log, hosting.Options{
		PollInterval: 5 * time.Millisecond,
		IdleTimeout:  time.Hour,
		ReapInterval: time.Hour,
	})
	t.Cleanup(views.Close)
	return New(views, store, shard.NewRouter(shard.DefaultShardCount), testAPIKey, log), store
}

func postEvent(t *testing.T, s *Server, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+userID+"/events", strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestAppendEventRequiresAPIKey verifies the write path rejects missing and
// wrong keys.
func TestAppendEventRequiresAPIKey(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/events", strings.NewReader(`{"kind":"session_ended","session_id":"s1"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/alice/events", strings.NewReader(`{"kind":"session_ended","session_id":"s1"}`))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}
}

// TestAppendEventValidates verifies malformed events are rejected before
// they reach the log.
func TestAppendEventValidates(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postEvent(t, s, "alice", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}

	rec = postEvent(t, s, "alice", `{"kind":"session_started","session_id":"s1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing properties status = %d, want 400", rec.Code)
	}
}

// TestAppendAndQueryExamples walks the full path: persist a session with two
// squat observations, then read session-scoped examples.
func TestAppendAndQueryExamples(t *testing.T) {
	s, _ := newTestServer(t)

	events := []string{
		`{"kind":"session_started","session_id":"s1","properties":{"muscle_group_keys":["legs"],"intended_intensity":0.7}}`,
		`{"kind":"exercise_observed","session_id":"s1","exercise":{"name":"squat","intensity":0.7}}`,
		`{"kind":"exercise_observed","session_id":"s1","exercise":{"name":"squat","intensity":0.7}}`,
	}
	for i, body := range events {
		rec := postEvent(t, s, "alice", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("append %d status = %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/examples?session_id=s1", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("examples status = %d: %s", rec.Code, rec.Body.String())
	}

	var examples []models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&examples); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(examples) == 0 || examples[0].Name != "squat" {
		t.Errorf("examples = %+v, want squat ranked first", examples)
	}
}

// TestExamplesNoSessionFails verifies the strict 404 for a session-scoped
// query with no matching active session.
func TestExamplesNoSessionFails(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/examples?session_id=s1", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "no examples available" {
		t.Errorf("error = %q, want %q", resp["error"], "no examples available")
	}
}

// TestExamplesGroupFilter verifies the free query with a groups filter
// returns catalog fallback for an empty history.
func TestExamplesGroupFilter(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/examples?groups=core", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var examples []models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&examples); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(examples) != 4 {
		t.Errorf("core examples = %d, want 4 catalog entries", len(examples))
	}
}

// TestSuggestionsRoundTrip verifies suggestions default to empty and reflect
// the latest suggestions_set event.
func TestSuggestionsRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/suggestions", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = postEvent(t, s, "bob", `{"kind":"suggestions_set","suggestions":{"suggestions":["lunge","plank"]}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("append status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/bob/suggestions", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var set models.SuggestionSet
	if err := json.NewDecoder(rec.Body).Decode(&set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(set.Suggestions) != 2 || set.Suggestions[0] != "lunge" {
		t.Errorf("suggestions = %+v, want [lunge plank]", set.Suggestions)
	}
}

// TestRouteEndpoint verifies the routing debug endpoint exposes a stable
// entity key and numeric shard id.
func TestRouteEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/route", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var route map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&route); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if route["entity_key"] != "alice" {
		t.Errorf("entity_key = %q, want alice", route["entity_key"])
	}
	if route["shard_id"] == "" {
		t.Errorf("shard_id missing")
	}
}

// TestCatalogEndpoint verifies the catalog is served.
func TestCatalogEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var groups []models.MuscleGroup
	if err := json.NewDecoder(rec.Body).Decode(&groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 7 {
		t.Errorf("groups = %d, want 7", len(groups))
	}
}
