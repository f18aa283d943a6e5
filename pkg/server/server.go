package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"cocorels-hq/kernel/pkg/config"
	"cocorels-hq/kernel/pkg/containment"
	"cocorels-hq/kernel/pkg/evaluation"
	"cocorels-hq/kernel/pkg/report"
	"cocorels-hq/kernel/pkg/routing"
	"cocorels-hq/kernel/pkg/telemetry/health"
	"cocorels-hq/kernel/pkg/telemetry/tracing"
)

// Evaluator is the part of the evaluation engine the server exposes.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluation.Request) *report.Report
	GetMomentum() float64
	RoutingStats() *routing.RoutingStats
}

// Shield is the part of the containment shield the server exposes.
type Shield interface {
	Check(ctx context.Context, req containment.Request) containment.Decision
	EmergencyLockdown(ctx context.Context) error
	Release(ctx context.Context)
	Locked() bool
}

// Dependencies are the components the server routes to.
type Dependencies struct {
	// Engine serves /v1/evaluate, /v1/momentum and /v1/routing/stats.
	// Required.
	Engine Evaluator

	// Shield serves the containment routes. Nil leaves them unmounted.
	Shield Shield

	// Health serves /ready. Nil uses a checker without checks.
	Health *health.Checker

	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string

	// Tracer wraps evaluate and containment calls in spans. Nil disables
	// spans; trace context is still extracted.
	Tracer *tracing.Tracer

	Version   string
	Commit    string
	BuildTime string
}

// Server is the kernel's HTTP server.
type Server struct {
	config       *config.ServerConfig
	deps         Dependencies
	auth         *GovernanceAuth
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. It does not listen until Start.
func New(cfg *config.ServerConfig, deps Dependencies) *Server {
	if deps.Health == nil {
		deps.Health = health.New(0)
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = config.DefaultMetricsPath
	}

	return &Server{
		config: cfg,
		deps:   deps,
		auth:   NewGovernanceAuth(cfg.GovernanceTokens),
		logger: slog.Default().With("component", "server"),
	}
}

// Start listens on the configured address and blocks until ctx is done or
// the listener fails. Cancelling ctx shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting kernel server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server within ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		srv := s.httpServer
		s.mu.RUnlock()
		if srv == nil {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("kernel server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	health.Register(mux, s.deps.Health, s.deps.Version, s.deps.Commit, s.deps.BuildTime)
	if s.deps.Metrics != nil {
		mux.Handle("GET "+s.deps.MetricsPath, s.deps.Metrics)
	}

	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /v1/momentum", s.handleMomentum)
	mux.HandleFunc("GET /v1/routing/stats", s.handleRoutingStats)

	if s.deps.Shield != nil {
		mux.HandleFunc("POST /v1/containment/check", s.handleContainmentCheck)
		mux.HandleFunc("POST /v1/containment/lockdown", s.auth.Handle(s.handleLockdown))
		mux.HandleFunc("POST /v1/containment/release", s.auth.Handle(s.handleRelease))
	}

	var handler http.Handler = mux
	handler = tracing.HTTPMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	return handler
}
