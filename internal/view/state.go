package view

import (
	"errors"

	"github.com/meltforce/gymview/internal/models"
	"github.com/meltforce/gymview/internal/stats"
)

// ErrNoExamples is returned for a session-scoped examples query when no
// session is active or the requested session id does not match. This is a
// strict-matching rule: the query never falls back to catalog data.
var ErrNoExamples = errors.New("no examples available")

// Mode is the state machine's current mode.
type Mode int

const (
	Idle Mode = iota
	InSession
)

func (m Mode) String() string {
	if m == InSession {
		return "in_session"
	}
	return "idle"
}

// State is one user's materialized view. It is not safe for concurrent use;
// the hosting layer serializes all access through a single mailbox.
type State struct {
	mode        Mode
	sessionID   string
	props       models.SessionProperties
	statistics  stats.Statistics
	suggestions models.SuggestionSet
}

// NewState returns an empty view in Idle mode.
func NewState() *State {
	return &State{}
}

// Apply folds one persisted event into the state. Events that do not apply
// in the current mode, and unrecognized kinds, leave the state unchanged.
func (s *State) Apply(ev Envelope) {
	switch ev.Kind {
	case KindSessionStarted:
		if s.mode == Idle && ev.Properties != nil {
			s.mode = InSession
			s.sessionID = ev.SessionID
			s.props = *ev.Properties
		}
	case KindExerciseObserved:
		if s.mode == InSession && ev.Exercise != nil {
			s.statistics = s.statistics.WithObserved(s.props, *ev.Exercise)
		}
	case KindSessionEnded:
		if s.mode == InSession {
			s.mode = Idle
			s.sessionID = ""
			s.props = models.SessionProperties{}
		}
	case KindSuggestionsSet:
		if ev.Suggestions != nil {
			s.suggestions = *ev.Suggestions
		}
	}
}

// Mode returns the current mode.
func (s *State) Mode() Mode { return s.mode }

// ActiveSessionID returns the current session id, or "" when idle.
func (s *State) ActiveSessionID() string { return s.sessionID }

// Statistics returns the current aggregate.
func (s *State) Statistics() stats.Statistics { return s.statistics }

// ExamplesForSession answers a session-scoped query: examples filtered by the
// active session's muscle groups and intended intensity. Fails with
// ErrNoExamples unless sessionID names the currently active session.
func (s *State) ExamplesForSession(sessionID string) ([]models.Exercise, error) {
	if s.mode != InSession || sessionID == "" || sessionID != s.sessionID {
		return nil, ErrNoExamples
	}
	intensity := s.props.IntendedIntensity
	return s.statistics.RankedExamples(s.props.MuscleGroupKeys, &intensity), nil
}

// Examples answers a free query, valid in any mode: full history plus full
// catalog, optionally narrowed to the given muscle groups.
func (s *State) Examples(groupKeys []string) []models.Exercise {
	return s.statistics.RankedExamples(groupKeys, nil)
}

// Suggestions returns the latest suggestion set, empty by default.
func (s *State) Suggestions() models.SuggestionSet {
	return s.suggestions
}
