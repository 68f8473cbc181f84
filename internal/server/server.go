// Package server exposes the kiosk control API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feed_kiosk/internal/model"
	"feed_kiosk/internal/selection"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

// Controller is the display loop as seen by the API.
type Controller interface {
	Current() (model.Post, time.Time, bool)
	RequestSkip()
	Snapshot(now time.Time) []selection.Scored
}

// Server is the control HTTP server.
type Server struct {
	addr   string
	ctrl   Controller
	log    *slog.Logger
	router chi.Router
	now    func() time.Time
}

// New creates a server. With a nil controller only /healthz and /metrics are
// routed.
func New(addr string, ctrl Controller, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	s := &Server{
		addr: addr,
		ctrl: ctrl,
		log:  log,
		now:  time.Now,
	}
	s.setupRoutes(gatherer)
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if s.ctrl != nil {
		r.Get("/current", s.handleRedirect)
		r.Route("/api", func(r chi.Router) {
			r.Get("/current", s.handleCurrent)
			r.Post("/skip", s.handleSkip)
			r.Get("/queue", s.handleQueue)
		})
	}

	s.router = r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", s.addr, err)
	}
	s.log.Info("http server stopped")
	return nil
}

type currentResponse struct {
	Post    model.Post `json:"post"`
	ShownAt time.Time  `json:"shown_at"`
	Elapsed float64    `json:"elapsed_seconds"`
}

type queueResponse struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Candidates  []selection.Scored `json:"candidates"`
	TotalWeight float64            `json:"total_weight"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	post, since, ok := s.ctrl.Current()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "nothing on screen"})
		return
	}
	s.writeJSON(w, http.StatusOK, currentResponse{
		Post:    post,
		ShownAt: since.UTC(),
		Elapsed: s.now().Sub(since).Seconds(),
	})
}

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	post, _, ok := s.ctrl.Current()
	if !ok || post.URL == "" {
		http.Error(w, "nothing on screen", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, post.URL, http.StatusFound)
}

func (s *Server) handleSkip(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.RequestSkip()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "skipping"})
}

func (s *Server) handleQueue(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	scored := s.ctrl.Snapshot(now)
	total := 0.0
	for _, sc := range scored {
		total += sc.Weight
	}
	if scored == nil {
		scored = []selection.Scored{}
	}
	s.writeJSON(w, http.StatusOK, queueResponse{
		GeneratedAt: now.UTC(),
		Candidates:  scored,
		TotalWeight: total,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
