package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
)

// Server manages the HTTP API. Use New to create one.
type Server struct {
	logger     hclog.Logger
	runner     *runner.Runner
	collection *collection.Collection
	addr       string
	version    string
	reveal     bool

	cors            CORSConfig
	shutdownTimeout time.Duration

	// mu guards environment and serialises runs.
	mu          sync.Mutex
	environment *env.Environment
}

func New(deps Dependencies, opts ...Option) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for server: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	environment := deps.Environment
	if environment == nil {
		environment = env.New("")
	}

	s := &Server{
		logger:          logger.Named("server"),
		runner:          deps.Runner,
		collection:      deps.Collection,
		addr:            deps.Addr,
		version:         "dev",
		environment:     environment,
		shutdownTimeout: DefaultShutdownTimeout,
		cors:            CORSConfig{MaxAge: DefaultCORSMaxAge},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Environment returns a copy of the server-held environment.
func (s *Server) Environment() *env.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.environment.Clone()
}

// Handler builds the router with every route registered.
func (s *Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	if s.cors.enabled() {
		s.applyCORS(mux)
	}

	config := huma.DefaultConfig("colrun API", s.version)
	api := humachi.New(mux, config)

	huma.NewErrorWithContext = errorHandler(s.logger)

	s.registerRoutes(api)
	return mux
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting API server", "address", s.addr, "collection", s.collection.Info.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down API server...")
		_ = srv.Shutdown(shutdownCtx)
		s.logger.Info("Shutdown complete")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// execute runs refs against the supplied environment, or against the server
// environment when supplied is nil. In the latter case the mutated
// environment replaces the server's.
func (s *Server) execute(ctx context.Context, refs []int, supplied *env.Environment) *runner.BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplied != nil {
		return s.runner.RunBatch(ctx, s.collection, refs, supplied)
	}

	working := s.environment.Clone()
	result := s.runner.RunBatch(ctx, s.collection, refs, working)
	s.environment = working
	return result
}
