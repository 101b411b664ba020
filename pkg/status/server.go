package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server constants
const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	ServiceName         = "passportwatch"
)

// Server serves the status snapshot over HTTP
type Server struct {
	store  Store
	log    *zap.Logger
	engine *gin.Engine
	server *http.Server
	start  time.Time
}

// NewServer builds a gin engine for the status endpoints listening on addr
func NewServer(addr string, store Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestID(), accessLog(log), recovery(log))

	s := &Server{
		store:  store,
		log:    log,
		engine: engine,
		start:  time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/status", s.handleStatus)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.log.Info("Starting status server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down status server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("status server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.start).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	st, ok, err := s.store.Load(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      true,
			"message":    "failed to load status",
			"request_id": c.GetString(requestIDKey),
		})
		return
	}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   true,
			"message": "poller has not reported yet",
		})
		return
	}

	c.JSON(http.StatusOK, st)
}
