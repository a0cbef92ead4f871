// gymview-seed appends a demo event stream for one user to an event log
// backend, so a local server has data to answer queries from.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/models"
	"github.com/meltforce/gymview/internal/view"
)

func main() {
	backend := flag.String("backend", "sqlite", "event log backend: sqlite or postgres")
	sqlitePath := flag.String("sqlite", "gymview.db", "sqlite event log path")
	dsn := flag.String("dsn", "", "postgres DSN (postgres backend)")
	userID := flag.String("user", "demo", "user identity to seed")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := context.Background()

	var store eventlog.Store
	var err error
	switch *backend {
	case "postgres":
		if *dsn == "" {
			log.Error("postgres backend requires -dsn")
			os.Exit(1)
		}
		store, err = eventlog.NewPostgres(ctx, *dsn)
	default:
		store, err = eventlog.OpenSQLite(*sqlitePath)
	}
	if err != nil {
		log.Error("failed to open event log", "backend", *backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	legDay := uuid.NewString()
	pushDay := uuid.NewString()

	events := []view.Envelope{
		view.NewSessionStarted(legDay, models.SessionProperties{
			MuscleGroupKeys:   []string{"legs", "core"},
			IntendedIntensity: 0.7,
		}),
		view.NewExerciseObserved(legDay, models.Exercise{Name: "squat", Intensity: models.Float64Ptr(0.7)}),
		view.NewExerciseObserved(legDay, models.Exercise{Name: "squat", Intensity: models.Float64Ptr(0.7)}),
		view.NewExerciseObserved(legDay, models.Exercise{Name: "plank", Intensity: models.Float64Ptr(0.5)}),
		view.NewSessionEnded(legDay),
		view.NewSuggestionsSet(models.SuggestionSet{Suggestions: []string{"lunge", "leg raise"}}),
		view.NewSessionStarted(pushDay, models.SessionProperties{
			MuscleGroupKeys:   []string{"chest", "shoulders"},
			IntendedIntensity: 0.8,
		}),
		view.NewExerciseObserved(pushDay, models.Exercise{Name: "bench press", Intensity: models.Float64Ptr(0.8)}),
		view.NewExerciseObserved(pushDay, models.Exercise{Name: "overhead press", Intensity: models.Float64Ptr(0.75)}),
		view.NewSessionEnded(pushDay),
	}

	for _, ev := range events {
		seq, err := store.Append(ctx, *userID, ev)
		if err != nil {
			log.Error("append failed", "kind", ev.Kind, "error", err)
			os.Exit(1)
		}
		log.Info("appended", "seq", seq, "kind", ev.Kind)
	}

	log.Info("seeded", "user", *userID, "events", len(events))
}
