package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/couchcryptid/impact-sim/internal/flow"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// Sessions is the session registry the API drives.
type Sessions interface {
	sharedobs.ReadinessChecker
	Create() (string, *flow.Controller)
	Get(id string) (*flow.Controller, error)
	Delete(id string) error
}

// Server exposes the session API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	sessions   Sessions
	points     domain.PointStore
	logger     *slog.Logger
}

type sessionResponse struct {
	ID      string        `json:"id"`
	Session flow.Snapshot `json:"session"`
}

type transitionResponse struct {
	Accepted bool          `json:"accepted"`
	Session  flow.Snapshot `json:"session"`
}

type pointRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type asteroidRequest struct {
	ID string `json:"id"`
}

type lastPointResponse struct {
	Point *domain.GeoPoint `json:"point"`
}

// NewServer creates an HTTP server with the /api session routes and the
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, sessions Sessions, points domain.PointStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessions: sessions,
		points:   points,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(sessions))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/start", s.transition(func(c *flow.Controller, _ *http.Request) (bool, error) {
		return c.Start(), nil
	}))
	mux.HandleFunc("POST /api/sessions/{id}/point", s.transition(selectPoint))
	mux.HandleFunc("POST /api/sessions/{id}/catalog", s.transition(func(c *flow.Controller, _ *http.Request) (bool, error) {
		return c.ChooseAsteroid(), nil
	}))
	mux.HandleFunc("POST /api/sessions/{id}/asteroid", s.transition(selectAsteroid))
	mux.HandleFunc("POST /api/sessions/{id}/impact", s.transition(func(c *flow.Controller, _ *http.Request) (bool, error) {
		return c.ComputeImpact(), nil
	}))
	mux.HandleFunc("POST /api/sessions/{id}/back", s.transition(func(c *flow.Controller, _ *http.Request) (bool, error) {
		return c.Back(), nil
	}))
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.transition(func(c *flow.Controller, _ *http.Request) (bool, error) {
		return c.Reset(), nil
	}))
	mux.HandleFunc("GET /api/legend", handleLegend)
	mux.HandleFunc("GET /api/last-point", s.handleLastPoint)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	id, ctrl := s.sessions.Create()
	sharedobs.WriteJSON(w, http.StatusCreated, sessionResponse{ID: id, Session: ctrl.Snapshot()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctrl, ok := s.lookup(w, id)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sessionResponse{ID: id, Session: ctrl.Snapshot()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transition adapts a controller action to a handler. Rejected transitions
// are reported in the body with a 200 status; only request errors map to 4xx.
func (s *Server) transition(apply func(*flow.Controller, *http.Request) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.lookup(w, r.PathValue("id"))
		if !ok {
			return
		}
		accepted, err := apply(ctrl, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, transitionResponse{Accepted: accepted, Session: ctrl.Snapshot()})
	}
}

func (s *Server) lookup(w http.ResponseWriter, id string) (*flow.Controller, bool) {
	ctrl, err := s.sessions.Get(id)
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return ctrl, true
}

func (s *Server) handleLastPoint(w http.ResponseWriter, r *http.Request) {
	p, ok, err := s.points.LastPoint(r.Context())
	if err != nil {
		s.logger.Debug("last point unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "last point unavailable")
		return
	}
	var resp lastPointResponse
	if ok {
		resp.Point = &p
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func handleLegend(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Legend())
}

func selectPoint(c *flow.Controller, r *http.Request) (bool, error) {
	var req pointRequest
	if err := decodeBody(r, &req); err != nil {
		return false, err
	}
	if req.Lat == nil || req.Lng == nil {
		return false, errors.New("lat and lng are required")
	}
	return c.SelectPoint(domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng}), nil
}

func selectAsteroid(c *flow.Controller, r *http.Request) (bool, error) {
	var req asteroidRequest
	if err := decodeBody(r, &req); err != nil {
		return false, err
	}
	return c.SelectAsteroid(req.ID), nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, flow.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
