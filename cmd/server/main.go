package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/watchsync/internal/adapter/httpserver"
	"github.com/pscheid92/watchsync/internal/adapter/metrics"
	"github.com/pscheid92/watchsync/internal/adapter/postgres"
	"github.com/pscheid92/watchsync/internal/adapter/redis"
	"github.com/pscheid92/watchsync/internal/adapter/websocket"
	"github.com/pscheid92/watchsync/internal/app"
	"github.com/pscheid92/watchsync/internal/auth"
	"github.com/pscheid92/watchsync/internal/broadcast"
	"github.com/pscheid92/watchsync/internal/domain"
	"github.com/pscheid92/watchsync/internal/platform/config"
	"github.com/pscheid92/watchsync/internal/platform/logging"
	"github.com/pscheid92/watchsync/internal/platform/retry"
	"github.com/pscheid92/watchsync/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

func runGracefulShutdown(srv *httpserver.Server, cancelSessions context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Hijacked WebSocket connections are not tracked by http.Server.Shutdown;
		// cancelling their base context sends each a close frame.
		cancelSessions()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return cfg
}

func setupDB(cfg *config.Config, m *metrics.DBMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewMetricsTracer(m))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	schema, err := postgres.RunMigrationsWithLock(ctx, db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_from", schema.From, "schema_to", schema.To)

	return db
}

// setupRedis connects with bounded retry. When the broker stays unreachable the
// process keeps a lazy client: sessions fall back to local delivery and pick the
// relay up again once the broker answers.
func setupRedis(cfg *config.Config, m *metrics.RelayMetrics) *redis.Client {
	hooks := []goredis.Hook{
		redis.NewCircuitBreakerHook(redis.BreakerSettings(m)),
		redis.NewMetricsHook(m),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts:    4,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
	}
	client, err := redis.Connect(ctx, cfg.RedisURL, policy, hooks...)
	if err == nil {
		return client
	}

	slog.Warn("Redis unavailable at startup, starting with local delivery only", "error", err)
	client, err = redis.NewClient(cfg.RedisURL, hooks...)
	if err != nil {
		slog.Error("Invalid Redis configuration", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "instance_id", cfg.InstanceID, "version", version.Version)

	reg := metrics.NewRegistry(cfg.InstanceID)
	httpMetrics := metrics.NewHTTPMetrics(reg)
	wsMetrics := metrics.NewWebSocketMetrics(reg)
	relayMetrics := metrics.NewRelayMetrics(reg)

	pool := setupDB(cfg, metrics.NewDBMetrics(reg))
	defer pool.Close()

	redisClient := setupRedis(cfg, relayMetrics)
	defer func() { _ = redisClient.Close() }()

	var relay domain.Relay = redis.NewRelay(redisClient, cfg.InstanceID, relayMetrics)

	clientCfg := broadcast.ClientConfig{BufferSize: cfg.OutboundBufferSize, Clock: clock, Metrics: wsMetrics}

	// Each endpoint has its own client map; comment viewers never see control frames.
	watchPartyRegistry := broadcast.NewRegistry()
	commentRegistry := broadcast.NewRegistry()
	commentBroadcaster := broadcast.NewBroadcaster(commentRegistry, wsMetrics)
	fanout := broadcast.NewCommentFanout(commentRegistry, commentBroadcaster)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret, clock)
	checkOrigin := websocket.NewCheckOrigin(cfg.AllowedOrigins(), cfg.IsDevelopment())

	watchParty := websocket.NewEndpoint(websocket.SessionConfig{
		Endpoint:       websocket.EndpointWatchParty,
		Registry:       watchPartyRegistry,
		Broadcaster:    broadcast.NewBroadcaster(watchPartyRegistry, wsMetrics),
		Verifier:       verifier,
		Relay:          relay,
		Client:         clientCfg,
		Clock:          clock,
		ConnectTimeout: cfg.BrokerConnectTimeout,
		PublishTimeout: cfg.BrokerPublishTimeout,
		Metrics:        wsMetrics,
	}, checkOrigin)

	commentFeed := websocket.NewEndpoint(websocket.SessionConfig{
		Endpoint:    websocket.EndpointComments,
		Registry:    commentRegistry,
		Broadcaster: commentBroadcaster,
		Client:      clientCfg,
		Clock:       clock,
		Metrics:     wsMetrics,
	}, checkOrigin)

	comments := app.NewComments(postgres.NewCommentRepo(pool), fanout)

	sessionCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()

	srv := httpserver.NewServer(sessionCtx, cfg, httpserver.Deps{
		Comments:    comments,
		Verifier:    verifier,
		WatchParty:  watchParty,
		CommentFeed: commentFeed,
		HealthChecks: []httpserver.HealthCheck{
			{Name: "postgres", Check: func(ctx context.Context) error { return postgres.Ping(ctx, pool) }},
			{Name: "redis", Check: redisClient.Ping, Optional: true},
		},
		Metrics:     metrics.Handler(reg),
		HTTPMetrics: httpMetrics,
		ConnLimits:  httpserver.NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP),
	})

	done := runGracefulShutdown(srv, cancelSessions)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
