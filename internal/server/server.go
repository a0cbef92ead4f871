package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/hosting"
	"github.com/meltforce/gymview/internal/shard"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	views  *hosting.Registry
	store  eventlog.Store
	shards shard.Router
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(views *hosting.Registry, store eventlog.Store, shards shard.Router, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		views:  views,
		store:  store,
		shards: shards,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log, s.shards))
	s.router.Use(CORS)

	// Event write path (API key required) — stands in for the durable
	// producers that normally feed the log.
	s.router.Route("/api/v1/users/{userID}/events", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleAppendEvent)
	})

	// View queries
	s.router.Get("/api/v1/users/{userID}/examples", s.handleExamples)
	s.router.Get("/api/v1/users/{userID}/suggestions", s.handleSuggestions)
	s.router.Get("/api/v1/users/{userID}/route", s.handleRoute)
	s.router.Get("/api/v1/catalog", s.handleCatalog)
}
