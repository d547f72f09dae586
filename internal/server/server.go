package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/config"
	"github.com/jackzampolin/pdfextract/internal/home"
	"github.com/jackzampolin/pdfextract/internal/pipeline"
	"github.com/jackzampolin/pdfextract/internal/server/endpoints"
	"github.com/jackzampolin/pdfextract/internal/svcctx"
)

// Server is the pdfextract HTTP server. It owns the extraction pipeline
// and rebuilds it whenever the configuration file changes.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger
	build      BuildFunc

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu          sync.RWMutex
	running     bool
	pipeline    *pipeline.Pipeline
	pipelineErr error
}

// BuildFunc assembles a pipeline from configuration.
type BuildFunc func(cfg *config.Config, workDir string, logger *slog.Logger) (*pipeline.Pipeline, error)

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: server.host, then 127.0.0.1)
	Host string
	// Port is the port to listen on (default: server.port, then 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support. Required.
	ConfigManager *config.Manager
	// Home is the pdfextract home directory; its work dir holds rasters.
	Home *home.Dir
	// Build overrides pipeline assembly (tests); pipeline.FromConfig if nil.
	Build BuildFunc
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration. A configuration
// that cannot build a pipeline (for example a missing API key) does not
// fail New: the server starts, /ready reports the reason and extraction
// requests get 503 until the config is fixed.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Build == nil {
		cfg.Build = pipeline.FromConfig
	}
	current := cfg.ConfigManager.Get()
	if cfg.Host == "" {
		cfg.Host = current.Server.Host
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" && current.Server.Port > 0 {
		cfg.Port = strconv.Itoa(current.Server.Port)
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
		build:     cfg.Build,
	}

	s.reload(current)

	// Watch for config changes
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		s.reload(c)
		s.logger.Info("pipeline reloaded from config")
	})
	cfg.ConfigManager.OnError(func(err error) {
		s.logger.Error("config reload failed, keeping previous settings", "error", err)
	})

	s.services = &svcctx.Services{
		Pipelines: s,
		Config:    cfg.ConfigManager,
		Logger:    s.logger,
		Home:      cfg.Home,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	// Extractions run one remote call per page, so writes get a long budget.
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.withServices(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      30 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// reload swaps in a pipeline built from cfg. The previous pipeline is not
// closed: in-flight requests may still hold it.
func (s *Server) reload(cfg *config.Config) {
	workDir := ""
	if s.home != nil {
		workDir = s.home.WorkPath()
	}
	p, err := s.build(cfg, workDir, s.logger)
	if err != nil {
		s.logger.Warn("extraction pipeline unavailable", "error", err)
	}

	s.mu.Lock()
	s.pipeline, s.pipelineErr = p, err
	s.mu.Unlock()
}

// Pipeline returns the active pipeline or the reason none is configured.
func (s *Server) Pipeline() (*pipeline.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipeline == nil {
		if s.pipelineErr != nil {
			return nil, s.pipelineErr
		}
		return nil, errors.New("pipeline not initialized")
	}
	return s.pipeline, nil
}

// Handler returns the HTTP handler with services attached.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves HTTP until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.home != nil {
		if err := s.home.EnsureExists(); err != nil {
			s.setNotRunning()
			return err
		}
	}

	if _, err := s.Pipeline(); err != nil {
		s.logger.Warn("starting without a usable pipeline; /api/extract will return 503", "error", err)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown drains in-flight requests and releases the pipeline.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.mu.Lock()
	p := s.pipeline
	s.pipeline = nil
	s.mu.Unlock()
	if p != nil {
		if err := p.Close(); err != nil {
			s.logger.Error("pipeline close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that rejects requests with 503 while no
// pipeline can be built from the current configuration.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.Pipeline(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: err.Error()})
			return
		}
		next(w, r)
	}
}
