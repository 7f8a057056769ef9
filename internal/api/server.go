// Package api exposes the bias-detection pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/middleware"
)

// Server is the HTTP server wiring the preprocessing and detection
// services to their routes.
type Server struct {
	cfg          *domain.Config
	preprocessor domain.Preprocessor
	detector     domain.BiasDetector
	provider     domain.ModelProvider
	verdicts     domain.VerdictRepository
	cache        *lru.Cache[string, *domain.VerdictRecord]
	logger       *logrus.Logger
	router       *gin.Engine
	server       *http.Server
}

// NewServer creates the HTTP server. The verdict cache is keyed by raw
// data hash, so re-uploads of identical content skip model inference.
func NewServer(
	cfg *domain.Config,
	preprocessor domain.Preprocessor,
	detector domain.BiasDetector,
	provider domain.ModelProvider,
	verdicts domain.VerdictRepository,
	logger *logrus.Logger,
) (*Server, error) {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cacheSize := cfg.API.VerdictCacheSize
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, *domain.VerdictRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating verdict cache: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())

	s := &Server{
		cfg:          cfg,
		preprocessor: preprocessor,
		detector:     detector,
		provider:     provider,
		verdicts:     verdicts,
		cache:        cache,
		logger:       logger,
		router:       router,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		analyzeLimit := middleware.RateLimit(s.cfg.API.AnalyzeRatePerSecond, s.cfg.API.AnalyzeRateBurst)
		v1.POST("/trials/analyze", analyzeLimit, s.handleAnalyze)
		v1.GET("/model", s.handleModelInfo)
		v1.POST("/model/retrain", s.handleRetrain)
		v1.GET("/verdicts", s.handleListVerdicts)
		v1.GET("/verdicts/:id", s.handleGetVerdict)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
