// Package stats maintains the per-user exercise statistics aggregate. The
// aggregate is an immutable value: updates return a new aggregate so the
// owning view can swap it in atomically.
package stats

import (
	"math"
	"sort"

	"github.com/meltforce/gymview/internal/catalog"
	"github.com/meltforce/gymview/internal/models"
)

// defaultIntensity stands in for an exercise with no declared intensity,
// both when matching rows and when averaging for query results.
const defaultIntensity = 0.5

// Bucket quantizes an intensity to the nearest 0.1. Two intensities are
// considered equal when their buckets are equal. The same quantization is
// applied in row matching and in query filtering; using different tolerances
// in the two places would fragment or over-merge the aggregate.
func Bucket(intensity float64) float64 {
	return math.Round(intensity*10) / 10
}

func closeTo(a, b float64) bool {
	return Bucket(a) == Bucket(b)
}

func exerciseIntensity(ex models.Exercise) float64 {
	if ex.Intensity != nil {
		return *ex.Intensity
	}
	return defaultIntensity
}

// Entry is one aggregate row: how many times an exercise was observed in
// sessions targeting a muscle group at a given intended intensity.
type Entry struct {
	MuscleGroupKey    string          `json:"muscle_group_key"`
	IntendedIntensity float64         `json:"intended_intensity"`
	Count             int             `json:"count"`
	Exercise          models.Exercise `json:"exercise"`
}

func (e Entry) matches(props models.SessionProperties, ex models.Exercise) bool {
	return props.HasGroup(e.MuscleGroupKey) &&
		closeTo(e.IntendedIntensity, props.IntendedIntensity) &&
		e.Exercise.Name == ex.Name &&
		closeTo(exerciseIntensity(e.Exercise), exerciseIntensity(ex))
}

// Statistics is the aggregate of all observed exercises for one user.
// The zero value is an empty aggregate.
type Statistics struct {
	entries []Entry
}

// Entries returns the aggregate rows in insertion order. Callers must not
// mutate the result.
func (s Statistics) Entries() []Entry {
	return s.entries
}

// WithObserved returns a new aggregate with the observation applied: the
// first row matching the session properties and exercise is incremented, or,
// when no row matches, one count-1 row is appended per session muscle group.
func (s Statistics) WithObserved(props models.SessionProperties, ex models.Exercise) Statistics {
	for i, e := range s.entries {
		if e.matches(props, ex) {
			next := make([]Entry, len(s.entries))
			copy(next, s.entries)
			next[i].Count++
			return Statistics{entries: next}
		}
	}

	next := make([]Entry, len(s.entries), len(s.entries)+len(props.MuscleGroupKeys))
	copy(next, s.entries)
	for _, key := range props.MuscleGroupKeys {
		next = append(next, Entry{
			MuscleGroupKey:    key,
			IntendedIntensity: props.IntendedIntensity,
			Count:             1,
			Exercise:          ex,
		})
	}
	return Statistics{entries: next}
}

// RankedExamples returns example exercises for the given filters. Observed
// exercises come first, ordered by ascending count so that under-represented
// exercises surface before popular ones, followed by catalog exercises with
// no history yet in alphabetical order. Either filter may be nil.
func (s Statistics) RankedExamples(groupKeys []string, intensity *float64) []models.Exercise {
	var groupSet map[string]bool
	if groupKeys != nil {
		groupSet = make(map[string]bool, len(groupKeys))
		for _, k := range groupKeys {
			groupSet[k] = true
		}
	}

	type grouped struct {
		total     int
		intensity float64
		rows      int
	}
	byName := make(map[string]*grouped)
	var names []string

	for _, e := range s.entries {
		if groupSet != nil && !groupSet[e.MuscleGroupKey] {
			continue
		}
		if intensity != nil && !closeTo(e.IntendedIntensity, *intensity) {
			continue
		}
		g, ok := byName[e.Exercise.Name]
		if !ok {
			g = &grouped{}
			byName[e.Exercise.Name] = g
			names = append(names, e.Exercise.Name)
		}
		g.total += e.Count
		g.intensity += exerciseIntensity(e.Exercise)
		g.rows++
	}

	sort.SliceStable(names, func(i, j int) bool {
		a, b := byName[names[i]], byName[names[j]]
		if a.total != b.total {
			return a.total < b.total
		}
		return names[i] < names[j]
	})

	seen := make(map[string]bool, len(names))
	examples := make([]models.Exercise, 0, len(names))
	for _, name := range names {
		g := byName[name]
		seen[name] = true
		examples = append(examples, models.Exercise{
			Name:      name,
			Intensity: models.Float64Ptr(g.intensity / float64(g.rows)),
		})
	}

	// Catalog fallback: every exercise in the filtered groups that the user
	// has no history for, in alphabetical order.
	var fallback []string
	for _, entry := range catalog.ExampleEntries() {
		if groupSet != nil && !groupSet[entry.MuscleGroupKey] {
			continue
		}
		if seen[entry.Exercise.Name] {
			continue
		}
		seen[entry.Exercise.Name] = true
		fallback = append(fallback, entry.Exercise.Name)
	}
	sort.Strings(fallback)
	for _, name := range fallback {
		examples = append(examples, models.Exercise{Name: name})
	}

	return examples
}
