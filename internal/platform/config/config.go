package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv             string `env:"APP_ENV" default:"development"`
	Port               string `env:"PORT" default:"8080"`
	DatabaseURL        string `env:"DATABASE_URL"`
	RedisURL           string `env:"REDIS_URL" default:"redis://127.0.0.1:6379"`
	JWTSecret          string `env:"JWT_SECRET"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	LogLevel           string `env:"LOG_LEVEL" default:"info"`
	LogFormat          string `env:"LOG_FORMAT" default:"text"`

	// InstanceID identifies this process on the relay. Generated at startup when empty.
	InstanceID string `env:"INSTANCE_ID"`

	OutboundBufferSize   int           `env:"OUTBOUND_BUFFER_SIZE" default:"100"`
	BrokerConnectTimeout time.Duration `env:"BROKER_CONNECT_TIMEOUT" default:"3s"`
	BrokerPublishTimeout time.Duration `env:"BROKER_PUBLISH_TIMEOUT" default:"2s"`

	CommentRateLimit float64 `env:"COMMENT_RATE_LIMIT" default:"5"`
	CommentRateBurst int     `env:"COMMENT_RATE_BURST" default:"10"`

	MaxConnections      int `env:"WS_MAX_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP int `env:"WS_MAX_CONNECTIONS_PER_IP" default:"50"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas, dropping empty entries.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.OutboundBufferSize < 1 {
		return errors.New("OUTBOUND_BUFFER_SIZE must be at least 1")
	}
	if cfg.BrokerConnectTimeout <= 0 || cfg.BrokerPublishTimeout <= 0 {
		return errors.New("broker timeouts must be positive")
	}
	if cfg.CommentRateLimit <= 0 || cfg.CommentRateBurst < 1 {
		return errors.New("COMMENT_RATE_LIMIT and COMMENT_RATE_BURST must be positive")
	}
	if cfg.MaxConnections < 0 || cfg.MaxConnectionsPerIP < 0 {
		return errors.New("connection limits must not be negative")
	}

	return nil
}
