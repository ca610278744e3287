// Package handler implements the read-only HTTP status API of the watcher.
// All handlers are methods on Server; Routes mounts them on a chi router.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lipanski/flycheap/internal/domain"
)

// StatusProvider reports the watcher's schedule and last round.
// *service.Watcher satisfies it.
type StatusProvider interface {
	Status() domain.WatchStatus
}

// Pinger checks that the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of the status API handlers.
type Server struct {
	status  StatusProvider
	db      Pinger
	openAPI []byte
}

// NewServer constructs the Server. db may be nil, in which case /healthz only
// reports that the process is up. openAPI is served verbatim at /openapi.yaml.
func NewServer(status StatusProvider, db Pinger, openAPI []byte) *Server {
	return &Server{status: status, db: db, openAPI: openAPI}
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/status", s.GetStatus)
	r.Get("/openapi.yaml", s.GetOpenAPI)
}

// Handler returns a standalone router serving Routes. Used by tests and by
// main before middleware is layered on.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "the status API is read-only")
	})
	s.Routes(r)
	return r
}
