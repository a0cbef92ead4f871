// Package view implements the per-user materialized view: the domain event
// envelope and the state machine that folds persisted events into queryable
// exercise statistics.
package view

import (
	"fmt"

	"github.com/meltforce/gymview/internal/models"
)

// Event kinds understood by the view. Unknown kinds are skipped during the
// fold so future event types never break replay.
const (
	KindSessionStarted   = "session_started"
	KindExerciseObserved = "exercise_observed"
	KindSessionEnded     = "session_ended"
	KindSuggestionsSet   = "suggestions_set"
)

// Envelope is the wire form of a domain event. Exactly the fields relevant
// to the event's kind are set; the rest stay empty.
type Envelope struct {
	Kind        string                    `json:"kind"`
	SessionID   string                    `json:"session_id,omitempty"`
	Properties  *models.SessionProperties `json:"properties,omitempty"`
	Exercise    *models.Exercise          `json:"exercise,omitempty"`
	Suggestions *models.SuggestionSet     `json:"suggestions,omitempty"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
}

// NewSessionStarted builds a session_started event.
func NewSessionStarted(sessionID string, props models.SessionProperties) Envelope {
	return Envelope{Kind: KindSessionStarted, SessionID: sessionID, Properties: &props}
}

// NewExerciseObserved builds an exercise_observed event.
func NewExerciseObserved(sessionID string, ex models.Exercise) Envelope {
	return Envelope{Kind: KindExerciseObserved, SessionID: sessionID, Exercise: &ex}
}

// NewSessionEnded builds a session_ended event.
func NewSessionEnded(sessionID string) Envelope {
	return Envelope{Kind: KindSessionEnded, SessionID: sessionID}
}

// NewSuggestionsSet builds a suggestions_set event.
func NewSuggestionsSet(set models.SuggestionSet) Envelope {
	return Envelope{Kind: KindSuggestionsSet, Suggestions: &set}
}

// Validate checks that an envelope accepted from the outside carries the
// fields its kind requires. Unknown kinds are accepted: the log stores them
// and the fold ignores them.
func (e Envelope) Validate() error {
	switch e.Kind {
	case "":
		return fmt.Errorf("event kind is required")
	case KindSessionStarted:
		if e.SessionID == "" {
			return fmt.Errorf("session_started: session_id is required")
		}
		if e.Properties == nil {
			return fmt.Errorf("session_started: properties are required")
		}
		if len(e.Properties.MuscleGroupKeys) == 0 {
			return fmt.Errorf("session_started: at least one muscle group is required")
		}
	case KindExerciseObserved:
		if e.Exercise == nil || e.Exercise.Name == "" {
			return fmt.Errorf("exercise_observed: exercise name is required")
		}
	case KindSessionEnded:
		if e.SessionID == "" {
			return fmt.Errorf("session_ended: session_id is required")
		}
	case KindSuggestionsSet:
		if e.Suggestions == nil {
			return fmt.Errorf("suggestions_set: suggestions are required")
		}
	}
	return nil
}
