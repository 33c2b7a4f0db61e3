package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/itx-nasir/phish-guard/internal/adapters/upload"
	"github.com/itx-nasir/phish-guard/internal/config"
	"github.com/itx-nasir/phish-guard/internal/core"
	"github.com/itx-nasir/phish-guard/internal/ports"
)

// Server is the HTTP front of the analysis engine
type Server struct {
	httpServer *http.Server
	limiter    *InMemoryRateLimiter
	logger     *zap.Logger
}

// NewServer wires the API routes and middleware around the given
// collaborators
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	analyzer *core.AnalyzerService,
	dispatcher ports.Dispatcher,
	history ports.HistoryRepository,
	uploads *upload.Store,
) (*Server, error) {
	serverCfg := cfg.GetServer()

	window, err := cfg.GetDuration("server.rate_limit.window")
	if err != nil {
		return nil, err
	}

	limiter := NewInMemoryRateLimiter(serverCfg.RateLimitMax, window)

	h := &handlers{
		logger:     logger,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		history:    history,
		uploads:    uploads,
		maxBytes:   cfg.GetInt64("analysis.max_file_bytes"),
	}

	router := newRouter(logger, limiter, h)

	return &Server{
		httpServer: &http.Server{
			Addr:              serverCfg.ListenAddress,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// newRouter builds the gin engine with all routes and middleware
// attached. Split out from NewServer so tests can drive the routes
// directly.
func newRouter(logger *zap.Logger, limiter RateLimiter, h *handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(SecurityHeaders())
	router.Use(RequestLogger(logger))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	api := router.Group("/api")
	api.GET("/health", h.health)
	api.GET("/analysis/:task_id", h.analysisResult)
	api.GET("/history", h.listHistory)
	api.GET("/stats", h.statistics)
	api.GET("/trends", h.trends)

	// Only submissions consume rate limit quota
	analyze := api.Group("/analyze", RateLimit(limiter, logger))
	analyze.POST("/content", h.analyzeContent)
	analyze.POST("/file", h.analyzeFile)

	return router
}

// Start begins serving in the background
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server terminated", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
