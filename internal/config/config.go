package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// postgres or memory; memory keeps everything in process and is for local demos
	Store string `env:"STORE" envDefault:"postgres"`

	DB     DB
	Redis  Redis
	Token  Token
	Admin  Admin
	OTel   OTel
	HTTP   HTTP
	Worker Worker
}

type DB struct {
	URL      string `env:"DB_URL"`
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"labhub"`
	Password string `env:"DB_PASSWORD" envDefault:"labhub"`
	Name     string `env:"DB_NAME" envDefault:"labhub"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"5"`
	Migrate  bool   `env:"DB_MIGRATE" envDefault:"true"`
}

// empty Addr disables redis and falls back to the in-process cache
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Token struct {
	Secret   string        `env:"TOKEN_SECRET"`
	TTL      time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
	CacheTTL time.Duration `env:"PRINCIPAL_CACHE_TTL" envDefault:"30s"`
}

// bootstrap superuser, skipped when email or password is empty
type Admin struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME" envDefault:"Administrator"`
}

type OTel struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"labhub-api"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`
}

type HTTP struct {
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	TokenRateLimit  int           `env:"TOKEN_RATE_LIMIT" envDefault:"10"`
	TokenRateWindow time.Duration `env:"TOKEN_RATE_WINDOW" envDefault:"1m"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

type Worker struct {
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`
	HealthPort    int           `env:"WORKER_HEALTH_PORT" envDefault:"8081"`
}

// Load reads an optional .env file and then the process environment.
func Load(envPath string) (Config, error) {
	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Token.Secret == "" {
		if c.Env != "dev" && c.Env != "test" {
			return errors.New("TOKEN_SECRET is required outside dev")
		}
	}

	if c.Store != "postgres" && c.Store != "memory" {
		return fmt.Errorf("STORE must be postgres or memory, got %q", c.Store)
	}

	if c.Worker.SweepInterval <= 0 {
		return errors.New("SESSION_SWEEP_INTERVAL must be positive")
	}

	if c.Token.TTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be within [0, 1], got %v", c.OTel.SampleRatio)
	}

	return nil
}

// TokenSecret falls back to a fixed development secret when none is configured.
func (c Config) TokenSecret() string {
	if c.Token.Secret == "" {
		return "labhub-dev-secret"
	}
	return c.Token.Secret
}

func (d DB) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
