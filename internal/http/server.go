// Package http exposes payments, breakdowns and profiles as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	applog "paytrack/internal/log"
	"paytrack/internal/profile"
	"paytrack/internal/services"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	readinessTimeout         = 2 * time.Second
)

// ReadinessCheck reports whether backing services can take traffic.
type ReadinessCheck func(ctx context.Context) error

// Options carries the server's collaborators.
type Options struct {
	Payments *services.PaymentService
	Profiles *profile.Service
	// Ready is consulted by /readyz; nil means always ready.
	Ready ReadinessCheck
	// Logger defaults to one built on slog.Default.
	Logger *applog.Logger
	// RateLimit is the per-client budget of mutating requests per minute.
	RateLimit int
}

type Server struct {
	http.Server
	payments    *services.PaymentService
	profiles    *profile.Service
	ready       ReadinessCheck
	logger      *applog.Logger
	rateLimiter *rateLimiter
	metrics     *metrics

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler()})
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		payments:    opts.Payments,
		profiles:    opts.Profiles,
		ready:       opts.Ready,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(opts.RateLimit),
		metrics:     newMetrics(),
	}
	go s.rateLimiter.startCleanup(rateLimitCleanupInterval)

	s.handle(mux, "GET /healthz", handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	s.handle(mux, "GET /api/payments", s.handleListPayments)
	s.handle(mux, "POST /api/payments", s.handleCreatePayment)
	s.handle(mux, "GET /api/payments/{id}", s.handleGetPayment)
	s.handle(mux, "PUT /api/payments/{id}", s.handleUpdatePayment)
	s.handle(mux, "DELETE /api/payments/{id}", s.handleDeletePayment)
	s.handle(mux, "GET /api/breakdown", s.handleBreakdown)
	s.handle(mux, "GET /api/categories", handleCategories)

	if s.profiles != nil {
		s.handle(mux, "POST /api/profile/register", s.handleRegister)
		s.handle(mux, "POST /api/profile/signin", s.handleSignIn)
		s.handle(mux, "GET /api/profile", s.requireUser(s.handleGetProfile))
		s.handle(mux, "PATCH /api/profile", s.requireUser(s.handleUpdateProfile))
	}

	return s
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.route(pattern, h))
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
