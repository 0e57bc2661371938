package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Winner-yo/mqtt-dashboard/services/api/config"
	"github.com/Winner-yo/mqtt-dashboard/services/api/hub"
	"github.com/Winner-yo/mqtt-dashboard/services/api/logging"
	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

const serviceName = "mqtt-dashboard-backend"

// SensorState is the read side of the state aggregator.
type SensorState interface {
	Snapshot() sensor.Snapshot
	SnapshotJSON() ([]byte, error)
}

// Viewers is the broadcast hub as seen by the HTTP layer.
type Viewers interface {
	Status() hub.Status
	HandleConnect(w http.ResponseWriter, r *http.Request)
}

// AlertArchive returns archived alerts, newest first.
type AlertArchive interface {
	RecentAlerts(ctx context.Context, limit int) ([]sensor.Alert, error)
}

// Deps are the components the routes read from. Archive and Metrics are optional.
type Deps struct {
	State   SensorState
	Viewers Viewers
	Archive AlertArchive
	Metrics http.Handler
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	deps   Deps
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.RequestLogger())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, deps: deps, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/sensor", s.handleSensor)
		api.GET("/status", s.handleStatus)
		api.GET("/alerts", s.handleAlerts)
	}

	if s.deps.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}

	ws := gin.WrapF(s.deps.Viewers.HandleConnect)
	s.engine.GET("/", ws)
	s.engine.GET("/ws", ws)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
