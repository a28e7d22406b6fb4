package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
)

const (
	DefaultShutdownTimeout = 5 * time.Second
	DefaultCORSMaxAge      = 5 * time.Minute
)

// Dependencies are the collaborators a Server cannot work without.
type Dependencies struct {
	Logger      hclog.Logger
	Runner      *runner.Runner
	Collection  *collection.Collection
	Environment *env.Environment
	Addr        string
}

func (d Dependencies) Validate() error {
	if d.Runner == nil {
		return fmt.Errorf("%w: runner", ErrMissingDependency)
	}
	if d.Collection == nil {
		return fmt.Errorf("%w: collection", ErrMissingDependency)
	}
	if strings.TrimSpace(d.Addr) == "" {
		return fmt.Errorf("%w: address", ErrMissingDependency)
	}
	return nil
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	// AllowOrigins lists the permitted origins. An empty list disables CORS.
	AllowOrigins []string

	// AllowCredentials is forced off when AllowOrigins contains "*".
	AllowCredentials bool

	MaxAge time.Duration
}

func (c CORSConfig) enabled() bool {
	return len(c.AllowOrigins) > 0
}

type Option func(*Server)

// WithCORSOrigins enables CORS with credentials for the given origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.cors.AllowOrigins = origins
		s.cors.AllowCredentials = true
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithReveal disables masking of sensitive values on GET /environment.
func WithReveal(reveal bool) Option {
	return func(s *Server) {
		s.reveal = reveal
	}
}

func (s *Server) applyCORS(mux *chi.Mux) {
	s.logger.Info("Enabling CORS", "origins", s.cors.AllowOrigins)

	opts := cors.Options{
		AllowedOrigins:   make([]string, 0, len(s.cors.AllowOrigins)),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: s.cors.AllowCredentials,
		MaxAge:           int(s.cors.MaxAge.Seconds()),
	}

	for _, origin := range s.cors.AllowOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			opts.AllowedOrigins = []string{"*"}
			opts.AllowCredentials = false
			break
		}
		opts.AllowedOrigins = append(opts.AllowedOrigins, origin)
	}

	mux.Use(cors.Handler(opts))
}
