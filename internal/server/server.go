// Package server provides the fleetcore HTTP server.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/db"
	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/service"
)

// Server wraps HTTP routes and dependencies.
type Server struct {
	pool      *db.Pool
	services  *service.Collection
	log       zerolog.Logger
	version   string
	commit    string
	buildDate string
	router    chi.Router
}

// New constructs the fleetcore API server.
func New(pool *db.Pool, services *service.Collection, log zerolog.Logger, version, commit, buildDate string) *Server {
	s := &Server{
		pool:      pool,
		services:  services,
		log:       log,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/readiness", s.handleReadiness)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/zones", func(r chi.Router) {
			r.Get("/", s.handleListZones)
			r.Post("/", s.handleCreateZone)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetZone)
				r.Put("/", s.handleUpdateZone)
				r.Delete("/", s.handleDeleteZone)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    s.version,
		"commit":     s.commit,
		"build_date": s.buildDate,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindAlreadyExists:
		status = http.StatusConflict
	case fault.KindConflict:
		status = http.StatusConflict
	case fault.KindBadRequest, fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindPreconditionFailed:
		status = http.StatusPreconditionFailed
	case fault.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	body := map[string]string{"error": err.Error()}
	if v := fault.ViolationOf(err); v != "" {
		body["violation"] = v
	}
	writeJSON(w, status, body)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// inUnitOfWork runs fn inside one transaction per request.
func (s *Server) inUnitOfWork(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.pool.RunInUnitOfWork(ctx, fn)
}
