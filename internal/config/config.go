package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"courtbooking/internal/domain"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"courtbooking.db"`
	TxRetries   int    `env:"TX_RETRIES" envDefault:"3"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-jwt-secret"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	InternalToken      string   `env:"INTERNAL_TOKEN"`
	InternalAllowedIPs []string `env:"INTERNAL_ALLOWED_IPS" envSeparator:","`
	CORSOrigins        []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	MaxTeamSize    int `env:"MAX_TEAM_SIZE" envDefault:"6"`
	MaxBookingDays int `env:"MAX_BOOKING_DAYS" envDefault:"14"`

	ExpiryEnabled  bool   `env:"EXPIRY_ENABLED" envDefault:"true"`
	ExpiryRunAt    string `env:"EXPIRY_RUN_AT" envDefault:"09:00"`
	ExpiryTimezone string `env:"EXPIRY_TIMEZONE" envDefault:"UTC"`

	NotifyQueueSize int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
	ExpoAccessToken string `env:"EXPO_ACCESS_TOKEN"`

	RabbitURL      string `env:"RABBIT_URL"`
	RabbitExchange string `env:"RABBIT_EXCHANGE" envDefault:"courtbooking.events"`
	RabbitQueue    string `env:"RABBIT_QUEUE" envDefault:"courtbooking.notifications"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse builds the Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves EXPIRY_TIMEZONE.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ExpiryTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	var errs []error
	if cfg.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be > 0"))
	}
	if cfg.TxRetries < 0 {
		errs = append(errs, errors.New("TX_RETRIES must be >= 0"))
	}
	if cfg.MaxTeamSize < 1 || cfg.MaxTeamSize > domain.MaxPlayers {
		errs = append(errs, fmt.Errorf("MAX_TEAM_SIZE must be between 1 and %d", domain.MaxPlayers))
	}
	if cfg.MaxBookingDays < 1 {
		errs = append(errs, errors.New("MAX_BOOKING_DAYS must be > 0"))
	}
	if cfg.NotifyQueueSize < 1 {
		errs = append(errs, errors.New("NOTIFY_QUEUE_SIZE must be > 0"))
	}
	if at, err := domain.ParseClock(cfg.ExpiryRunAt); err != nil || at >= domain.MinutesPerDay {
		errs = append(errs, fmt.Errorf("EXPIRY_RUN_AT must be HH:MM, got %q", cfg.ExpiryRunAt))
	}
	if _, err := time.LoadLocation(cfg.ExpiryTimezone); err != nil {
		errs = append(errs, fmt.Errorf("EXPIRY_TIMEZONE %q: %w", cfg.ExpiryTimezone, err))
	}
	if cfg.RabbitURL != "" && cfg.RabbitExchange == "" {
		errs = append(errs, errors.New("RABBIT_EXCHANGE must be set when RABBIT_URL is set"))
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			errs = append(errs, errors.New("in prod/release JWT_SECRET must be set and not default"))
		}
		if strings.HasSuffix(cfg.DatabaseURL, ".db") {
			errs = append(errs, errors.New("in prod/release DATABASE_URL must point to PostgreSQL"))
		}
	}
	return errors.Join(errs...)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
