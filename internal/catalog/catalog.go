// Package catalog holds the static muscle-group reference data. The catalog
// is fixed for the lifetime of the process and shared read-only across all
// user views.
package catalog

import (
	"github.com/meltforce/gymview/internal/models"
)

var groups = []models.MuscleGroup{
	{Key: "chest", Title: "Chest", Exercises: []string{
		"bench press", "chest fly", "incline press", "push-up",
	}},
	{Key: "back", Title: "Back", Exercises: []string{
		"barbell row", "deadlift", "lat pulldown", "pull-up",
	}},
	{Key: "shoulders", Title: "Shoulders", Exercises: []string{
		"face pull", "lateral raise", "overhead press",
	}},
	{Key: "arms", Title: "Arms", Exercises: []string{
		"biceps curl", "hammer curl", "triceps extension",
	}},
	{Key: "legs", Title: "Legs", Exercises: []string{
		"leg press", "lunge", "romanian deadlift", "squat",
	}},
	{Key: "core", Title: "Core", Exercises: []string{
		"crunch", "leg raise", "plank", "russian twist",
	}},
	{Key: "cardio", Title: "Cardio", Exercises: []string{
		"cycling", "jump rope", "rowing", "running",
	}},
}

// Groups returns all muscle groups in catalog order. Callers must not
// mutate the result.
func Groups() []models.MuscleGroup {
	return groups
}

// Entry is one (muscle group, exercise) pair from the catalog, shaped as a
// zero-count placeholder so queries can fall back to it when a user has no
// observed history for an exercise.
type Entry struct {
	MuscleGroupKey string
	Exercise       models.Exercise
}

// ExampleEntries returns the cross product of every muscle group with its
// exercises. Pure and deterministic; computed once at package init.
func ExampleEntries() []Entry {
	return exampleEntries
}

var exampleEntries = buildExampleEntries()

func buildExampleEntries() []Entry {
	var entries []Entry
	for _, g := range groups {
		for _, name := range g.Exercises {
			entries = append(entries, Entry{
				MuscleGroupKey: g.Key,
				Exercise:       models.Exercise{Name: name},
			})
		}
	}
	return entries
}
