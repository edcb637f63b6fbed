// Package api exposes the simulation over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netwatch-sim/internal/hub"
	"netwatch-sim/internal/logging"
	"netwatch-sim/internal/observability"
	"netwatch-sim/internal/store"
)

// Simulation is the lifecycle surface handlers need.
type Simulation interface {
	Start(ctx context.Context) (bool, error)
	Stop() bool
	Running() bool
}

// Viewers is the broadcast registry WebSocket clients join.
type Viewers interface {
	Register(v hub.Viewer) hub.Handle
	Unregister(id hub.Handle)
	Len() int
}

// Diagnoser answers free-text questions about the network.
type Diagnoser interface {
	Diagnose(ctx context.Context, query string, extra map[string]any) (string, error)
}

// StatusReporter is told when the API listener starts and stops.
type StatusReporter interface {
	SetAdminStatus(active bool)
}

// Config wires a Server. Store, Sim, Hub and Diagnoser are required.
type Config struct {
	Store     store.Store
	Sim       Simulation
	Hub       Viewers
	Diagnoser Diagnoser
	Metrics   *observability.Metrics
	// Gatherer backs /metrics; defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Origins allowed by CORS. Empty or "*" allows any origin.
	Origins []string
	// DiagnosisRate and DiagnosisBurst bound /diagnosis per client IP.
	DiagnosisRate  float64
	DiagnosisBurst int
	// Status is told when the listener comes up and goes down.
	Status StatusReporter
	Logger *slog.Logger
}

// Server serves the REST API and the viewer stream.
type Server struct {
	store   store.Store
	sim     Simulation
	hub     Viewers
	diag    Diagnoser
	metrics *observability.Metrics
	limiter *RateLimiter
	status  StatusReporter
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer builds the gin engine and registers every route, both at the
// root and under /api.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.DiagnosisRate <= 0 {
		cfg.DiagnosisRate = 0.5
	}
	if cfg.DiagnosisBurst <= 0 {
		cfg.DiagnosisBurst = 5
	}
	s := &Server{
		store:   cfg.Store,
		sim:     cfg.Sim,
		hub:     cfg.Hub,
		diag:    cfg.Diagnoser,
		metrics: cfg.Metrics,
		limiter: NewRateLimiter(cfg.DiagnosisRate, cfg.DiagnosisBurst),
		status:  cfg.Status,
		logger:  cfg.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(cfg.Logger), cors(cfg.Origins))
	metrics := promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	r.GET("/metrics", gin.WrapH(metrics))
	s.routes(r.Group(""))
	s.routes(r.Group("/api"))
	s.engine = r
	return s
}

func (s *Server) routes(g *gin.RouterGroup) {
	g.GET("/", s.handleRoot)
	g.GET("/health", s.handleHealth)
	g.GET("/nodes", s.handleNodes)
	g.GET("/alerts", s.handleAlerts)
	g.POST("/alerts/:id/resolve", s.handleResolveAlert)
	g.POST("/diagnosis", s.handleDiagnosis)
	g.GET("/chat/history", s.handleChatHistory)
	g.POST("/simulation/start", s.handleStart)
	g.POST("/simulation/stop", s.handleStop)
	g.GET("/ws", s.handleWebSocket)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	log := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	if s.status != nil {
		s.status.SetAdminStatus(true)
		defer s.status.SetAdminStatus(false)
	}
	log.Info("api listening", "addr", addr)

	select {
	case err := <-errCh:
		s.limiter.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.limiter.Stop()
	log.Info("api stopped")
	return err
}

// Close releases background resources when the server is used without Start.
func (s *Server) Close() {
	s.limiter.Stop()
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP())
	}
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ParseOrigins splits a comma separated CORS_ORIGINS value.
func ParseOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
