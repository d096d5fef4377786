package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/api/middleware"
	"github.com/GriffinCanCode/elasticbundle/internal/bundle"
	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
	"github.com/GriffinCanCode/elasticbundle/internal/profiler"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *http.Server
	container *bundle.Container
	profiler  *profiler.Profiler
	store     *profiler.Store
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// New creates a server serving the clients described by es
func New(cfg *config.Config, es config.Elasticsearch, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing server",
		zap.String("port", cfg.Server.Port),
		zap.Strings("clients", es.IDs()),
		zap.Bool("profiler", cfg.Profiler.Enabled),
	)

	metrics := monitoring.NewMetrics()

	s := &Server{
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}

	deps := bundle.Deps{
		Logger:  logger,
		Metrics: metrics,
		Debug:   cfg.Profiler.Enabled,
	}
	if cfg.Profiler.Enabled {
		stringifier, err := collector.StringifierByName(cfg.Profiler.Stringifier)
		if err != nil {
			return nil, fmt.Errorf("profiler: %w", err)
		}
		s.store = profiler.NewStore(cfg.Profiler.Capacity, cfg.Profiler.TTL,
			profiler.WithStoreMetrics(metrics),
			profiler.WithStoreLogger(logger))
		s.profiler = profiler.New(s.store, stringifier,
			profiler.WithLogger(logger),
			profiler.WithMetrics(metrics),
			profiler.WithSkipPrefixes("/metrics"))
		deps.Observer = s.profiler
	}

	container, err := bundle.Load(es, deps)
	if err != nil {
		if s.store != nil {
			s.store.Close()
		}
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	s.container = container

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.logger))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}
	if s.profiler != nil {
		router.Use(s.profiler.Middleware())
		profiler.NewHandlers(s.profiler).Register(router)
	}

	h := &handlers{container: s.container, metrics: s.metrics, logger: s.logger}
	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.POST("/search/:client/:index", h.search)

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/metrics/json", h.metricsJSON)

	return router
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Container returns the client container
func (s *Server) Container() *bundle.Container {
	return s.container
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var err error
	if s.http != nil {
		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(shutdownErr))
			err = fmt.Errorf("failed to shut down http server: %w", shutdownErr)
		}
	}

	s.container.Close()
	if s.store != nil {
		s.store.Close()
	}

	_ = s.logger.Sync()
	return err
}
