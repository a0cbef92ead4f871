package models

// Exercise is a single observed or suggested exercise. Intensity is optional:
// observed exercises usually carry one, catalog placeholders do not.
type Exercise struct {
	Name      string         `json:"name"`
	Intensity *float64       `json:"intensity,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SessionProperties describes a training session: which muscle groups it
// targets and how hard the user intends to train.
type SessionProperties struct {
	MuscleGroupKeys   []string `json:"muscle_group_keys"`
	IntendedIntensity float64  `json:"intended_intensity"`
}

// HasGroup reports whether key is one of the session's muscle groups.
func (p SessionProperties) HasGroup(key string) bool {
	for _, k := range p.MuscleGroupKeys {
		if k == key {
			return true
		}
	}
	return false
}

// MuscleGroup is a catalog entry: a stable key, a display title, and the
// ordered list of exercise names belonging to the group.
type MuscleGroup struct {
	Key       string   `json:"key"`
	Title     string   `json:"title"`
	Exercises []string `json:"exercises"`
}

// SuggestionSet is an externally produced suggestion payload. It is replaced
// wholesale on every SuggestionsSet event, never merged.
type SuggestionSet struct {
	Suggestions []string `json:"suggestions"`
}

// Float64Ptr returns a pointer to v. Convenience for optional intensities.
func Float64Ptr(v float64) *float64 { return &v }
