package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort              int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	RequestTimeoutSeconds int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`

	// Marketplace API
	MarketplaceURL            string `env:"MARKETPLACE_API_URL" envDefault:"http://localhost:8000"`
	MarketplaceTimeoutSeconds int    `env:"MARKETPLACE_TIMEOUT_SECONDS" envDefault:"10"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 30 days)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"720"`
	// Session TTL in hours, used when the refresh token carries no expiry.
	SessionTTL int `env:"SESSION_TTL_HOURS" envDefault:"168"`

	// Kafka. Empty disables events.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Checkout journal (PostgreSQL)
	JournalEnabled bool   `env:"CHECKOUT_JOURNAL_ENABLED" envDefault:"false"`
	PostgresHost   string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort   int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser   string `env:"POSTGRES_USER" envDefault:"florist"`
	PostgresPass   string `env:"POSTGRES_PASSWORD" envDefault:"florist"`
	PostgresDB     string `env:"STOREFRONT_DB_NAME" envDefault:"storefront"`
	PostgresSSL    string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns     int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Browser access
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"false"`

	// Login throttling per client IP
	LoginRateLimitRPS   float64 `env:"LOGIN_RATE_LIMIT_RPS" envDefault:"1"`
	LoginRateLimitBurst int     `env:"LOGIN_RATE_LIMIT_BURST" envDefault:"5"`

	// Cache-Control max-age for catalog responses, in seconds
	CatalogMaxAge int `env:"CATALOG_MAX_AGE_SECONDS" envDefault:"30"`

	// /metrics and pprof (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects settings the storefront cannot start with.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.MarketplaceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MARKETPLACE_API_URL must be an absolute URL, got %q", c.MarketplaceURL)
	}
	if c.MarketplaceTimeoutSeconds < 1 {
		return fmt.Errorf("MARKETPLACE_TIMEOUT_SECONDS must be positive, got %d", c.MarketplaceTimeoutSeconds)
	}
	if c.CartTTL < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTL)
	}
	if c.SessionTTL < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTL)
	}
	if c.JournalEnabled && (c.PostgresHost == "" || c.PostgresUser == "") {
		return fmt.Errorf("POSTGRES_HOST and POSTGRES_USER are required when the checkout journal is enabled")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.LoginRateLimitRPS < 0 || c.LoginRateLimitBurst < 0 {
		return fmt.Errorf("login rate limit must not be negative")
	}
	if c.CatalogMaxAge < 0 {
		return fmt.Errorf("CATALOG_MAX_AGE_SECONDS must not be negative, got %d", c.CatalogMaxAge)
	}
	return nil
}

// CartTTLDuration is the cart expiry as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// SessionTTLDuration is the fallback session expiry as a duration.
func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}

// MarketplaceTimeout is the per-request marketplace deadline.
func (c *Config) MarketplaceTimeout() time.Duration {
	return time.Duration(c.MarketplaceTimeoutSeconds) * time.Second
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
