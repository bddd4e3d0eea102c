package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/observability"
	"github.com/artifact-explorer/artifact-explorer/internal/queries"
)

// Server is the HTTP server. It owns the echo instance and the API controller.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings

	dataStore DataStore
	importer  Importer
	catalog   *queries.Catalog
	metrics   *observability.Metrics

	controller *Controller
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDataStore sets the store serving browse and query requests.
func WithDataStore(ds DataStore) ServerOption {
	return func(s *Server) {
		s.dataStore = ds
	}
}

// WithImporter sets the import pipeline.
func WithImporter(imp Importer) ServerOption {
	return func(s *Server) {
		s.importer = imp
	}
}

// WithCatalog sets the canned query catalog.
func WithCatalog(c *queries.Catalog) ServerOption {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithMetrics exposes the registry on /metrics.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{config: config, settings: settings}
	for _, opt := range opts {
		opt(s)
	}
	if s.dataStore == nil || s.importer == nil || s.catalog == nil {
		return nil, fmt.Errorf("server requires a data store, an importer and a query catalog")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	GetLogger().Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("debug", config.Debug))

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(NewRequestLogger(GetLogger(), s.config.Debug))
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	s.controller = NewController(s.echo.Group("/api/v1"), s.dataStore, s.importer, s.catalog, s.settings)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start listens until the server is shut down. A clean shutdown returns nil.
func (s *Server) Start() error {
	addr := s.config.Address()
	GetLogger().Info("starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		GetLogger().Error("HTTP server shutdown failed", logger.Error(err))
		return err
	}
	GetLogger().Info("HTTP server stopped")
	return nil
}
