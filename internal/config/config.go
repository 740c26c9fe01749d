package config

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	pkgconfig "github.com/utafrali/shopvista/pkg/config"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Sessions
	SessionStore      string `env:"SESSION_STORE" envDefault:"memory"`
	SessionTTLMinutes int    `env:"SESSION_TTL_MINUTES" envDefault:"120"`

	// Redis (only used when SessionStore is "redis")
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Catalog presentation
	CatalogLocale  string `env:"CATALOG_LOCALE" envDefault:"en-IN"`
	CurrencySymbol string `env:"CURRENCY_SYMBOL" envDefault:"₹"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionTTL returns the idle lifetime of a storefront session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Locale returns the parsed catalog locale.
func (c *Config) Locale() language.Tag {
	return language.Make(c.CatalogLocale)
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreRedis, c.SessionStore)
	}
	if c.SessionTTLMinutes < 1 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	if c.SessionStore == SessionStoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when SESSION_STORE is %q", SessionStoreRedis)
	}
	if _, err := language.Parse(c.CatalogLocale); err != nil {
		return fmt.Errorf("invalid CATALOG_LOCALE %q: %w", c.CatalogLocale, err)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTelSampleRate)
	}
	return nil
}
