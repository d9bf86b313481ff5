// Package server hosts the Telegram webhook, health, and metrics endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UpdateHandler processes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(u tgbotapi.Update) error
}

// HealthReporter reports collector health.
type HealthReporter interface {
	Degraded() bool
	ConsecutiveFailures() int
}

// Options configures a Server.
type Options struct {
	// Secret is the webhook path segment. Requests to any other path are
	// rejected.
	Secret   string
	Updates  UpdateHandler
	Health   HealthReporter
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server is the bot's HTTP server.
type Server struct {
	opts     Options
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
	router   *gin.Engine
}

// NewServer creates a server bound to addr. Use "127.0.0.1:0" for a random port.
func NewServer(addr string, opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: binding listener: %w", err)
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		listener: ln,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.router = s.routes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}
	r.POST("/:secret", s.handleWebhook)
	return r
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.opts.Health != nil && s.opts.Health.Degraded() {
		c.JSON(http.StatusOK, gin.H{
			"status":               "degraded",
			"consecutive_failures": s.opts.Health.ConsecutiveFailures(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebhook(c *gin.Context) {
	secret := c.Param("secret")
	if s.opts.Secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.opts.Secret)) != 1 {
		c.Status(http.StatusNotFound)
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.logger.Warn("decode update", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	// Telegram redelivers on non-2xx, which would replay the event, so
	// handler failures are logged and acknowledged.
	if err := s.opts.Updates.HandleUpdate(update); err != nil {
		s.logger.Error("handle update", "update_id", update.UpdateID, "error", err)
	}
	c.Status(http.StatusOK)
}
