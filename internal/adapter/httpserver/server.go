package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/watchsync/internal/adapter/metrics"
	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/pscheid92/watchsync/internal/platform/config"
)

// sessionEndpoint upgrades a request into a long-lived WebSocket session.
type sessionEndpoint interface {
	Serve(w http.ResponseWriter, r *http.Request, videoID int64)
}

// Deps bundles what the server routes to.
type Deps struct {
	Comments     domain.CommentService
	Verifier     domain.TokenVerifier
	WatchParty   sessionEndpoint
	CommentFeed  sessionEndpoint
	HealthChecks []HealthCheck
	Metrics      http.Handler
	HTTPMetrics  *metrics.HTTPMetrics
	ConnLimits   *ConnectionLimits
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	comments    domain.CommentService
	verifier    domain.TokenVerifier
	watchParty  sessionEndpoint
	commentFeed sessionEndpoint

	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	connLimits     *ConnectionLimits
	healthChecks   []HealthCheck
	startTime      time.Time
}

// NewServer builds the HTTP server. Every request context, including upgraded
// WebSocket sessions, derives from baseCtx; cancelling it closes open sessions.
func NewServer(baseCtx context.Context, cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.BaseContext = func(net.Listener) context.Context { return baseCtx }

	srv := &Server{
		echo:           e,
		config:         cfg,
		comments:       deps.Comments,
		verifier:       deps.Verifier,
		watchParty:     deps.WatchParty,
		commentFeed:    deps.CommentFeed,
		metricsHandler: deps.Metrics,
		httpMetrics:    deps.HTTPMetrics,
		connLimits:     deps.ConnLimits,
		healthChecks:   deps.HealthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
