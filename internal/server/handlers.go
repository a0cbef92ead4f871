package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/gymview/internal/catalog"
	"github.com/meltforce/gymview/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone at this point; nothing useful to do.
		return
	}
}

func (s *Server) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var ev view.Envelope
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := ev.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	seq, err := s.store.Append(r.Context(), userID, ev)
	if err != nil {
		s.log.Error("append error", "user", userID, "kind", ev.Kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"seq": seq})
}

// handleExamples serves both query shapes: session_id for the strict
// session-scoped query, groups for the free filtered query, neither for the
// full history plus catalog.
func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sessionID := r.URL.Query().Get("session_id")

	if sessionID != "" {
		examples, err := s.views.ExamplesForSession(r.Context(), userID, sessionID)
		if errors.Is(err, view.ErrNoExamples) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": view.ErrNoExamples.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, examples)
		return
	}

	var groups []string
	if raw := r.URL.Query().Get("groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
	}

	examples, err := s.views.Examples(r.Context(), userID, groups)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, examples)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	set, err := s.views.Suggestions(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleRoute exposes the placement contract for debugging: the entity key
// and shard id the infrastructure would use for this user.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	entityKey, shardID := s.shards.Route(userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"entity_key": entityKey,
		"shard_id":   shardID,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Groups())
}
