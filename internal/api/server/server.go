package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vm-transcriber/internal/api/middleware"
	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/repository"
)

// Config represents admin server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Development  bool
}

// DefaultConfig returns timeouts suited to an internal admin endpoint.
func DefaultConfig(addr string, development bool) Config {
	return Config{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		Development:  development,
	}
}

// Server is the admin HTTP server: health, metrics and read-only lookups.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     logging.Logger
}

// NewServer creates the admin server. It does not listen until Start.
func NewServer(config Config, store repository.ResultStore, registry *prometheus.Registry, logger logging.Logger) *Server {
	if config.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	h := &transcriptionHandler{store: store, logger: logger}
	v1 := router.Group("/api/v1")
	{
		v1.GET("/transcriptions/:msg_id", h.Get)
	}

	return &Server{
		config: config,
		router: router,
		httpServer: &http.Server{
			Addr:         config.Addr,
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger,
	}
}

// Start binds the listen address and serves in the background. Bind
// errors are returned; serve errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Admin server started", zap.String("address", ln.Addr().String()))
	return nil
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	s.logger.Info("Shutting down admin server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Admin server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
