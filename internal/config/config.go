package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/config"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/database"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httpclient"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/middleware"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/tracing"
)

// Config holds all configuration for the price comparer service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort              int      `env:"HTTP_PORT" envDefault:"8090"`
	RequestTimeoutSeconds int      `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowedOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	PprofAllowedCIDRs     []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`

	// Per-client rate limiting
	RateLimitRPS           float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst         int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	LoginAttemptsPerMinute int     `env:"LOGIN_ATTEMPTS_PER_MINUTE" envDefault:"10"`
	TrustProxy             bool    `env:"TRUST_PROXY" envDefault:"false"`

	// Price backend
	BackendBaseURL        string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8080"`
	BackendTimeoutSeconds int    `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"10"`
	BackendMaxRetries     int    `env:"BACKEND_MAX_RETRIES" envDefault:"0"`

	// Circuit breaker around the price backend
	BackendCBTimeoutSeconds int     `env:"BACKEND_CB_TIMEOUT_SECONDS" envDefault:"30"`
	BackendCBFailureRatio   float64 `env:"BACKEND_CB_FAILURE_RATIO" envDefault:"0.5"`
	BackendCBMinRequests    uint32  `env:"BACKEND_CB_MIN_REQUESTS" envDefault:"5"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// Session state TTL in hours (selection, browse list, comparison, cart snapshot)
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24"`
	// Active cart id cache TTL in minutes
	ActiveCartTTLMinutes int `env:"ACTIVE_CART_TTL_MINUTES" envDefault:"30"`
	StorePageSize        int `env:"STORE_PAGE_SIZE" envDefault:"30"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"comparer"`
	PostgresPass     string `env:"POSTGRES_PASSWORD" envDefault:"comparer_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"price_comparer"`
	PostgresSSL      string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	SlowQueryMillis  int    `env:"POSTGRES_SLOW_QUERY_MS" envDefault:"200"`

	// Kafka. Event publishing is disabled when no broker is configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load price comparer config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute URL, got %q", c.BackendBaseURL)
	}
	if c.BackendTimeoutSeconds <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT_SECONDS must be positive, got %d", c.BackendTimeoutSeconds)
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative, got %d", c.BackendMaxRetries)
	}
	if c.BackendCBFailureRatio <= 0 || c.BackendCBFailureRatio > 1 {
		return fmt.Errorf("BACKEND_CB_FAILURE_RATIO must be in (0, 1], got %g", c.BackendCBFailureRatio)
	}
	if c.SessionTTLHours <= 0 || c.ActiveCartTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS and ACTIVE_CART_TTL_MINUTES must be positive")
	}
	if c.StorePageSize <= 0 {
		return fmt.Errorf("STORE_PAGE_SIZE must be positive, got %d", c.StorePageSize)
	}
	if c.RateLimitRPS < 0 || c.LoginAttemptsPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and LOGIN_ATTEMPTS_PER_MINUTE must not be negative")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %g", c.OTELSampleRate)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SessionTTL is the lifetime of per-session and per-user state in Redis.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ActiveCartTTL is the lifetime of a cached active cart id.
func (c *Config) ActiveCartTTL() time.Duration {
	return time.Duration(c.ActiveCartTTLMinutes) * time.Minute
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		PoolSize: c.RedisPoolSize,
	}
}

// Postgres returns the PostgreSQL connection settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Backend returns the HTTP client settings for the price backend.
func (c *Config) Backend() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = time.Duration(c.BackendTimeoutSeconds) * time.Second
	hc.MaxRetries = c.BackendMaxRetries
	return hc
}

// BackendBreaker returns the circuit breaker settings for the price backend.
func (c *Config) BackendBreaker() httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig("price-backend")
	cb.Timeout = time.Duration(c.BackendCBTimeoutSeconds) * time.Second
	cb.FailureRatio = c.BackendCBFailureRatio
	cb.MinRequests = c.BackendCBMinRequests
	return cb
}

// RateLimit returns the limiter applied to every API route.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{RPS: c.RateLimitRPS, Burst: c.RateLimitBurst, TrustProxy: c.TrustProxy}
}

// LoginRateLimit returns the stricter limiter in front of login.
func (c *Config) LoginRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:        float64(c.LoginAttemptsPerMinute) / 60,
		Burst:      c.LoginAttemptsPerMinute,
		TrustProxy: c.TrustProxy,
	}
}

// Tracing returns the OpenTelemetry settings for serviceName.
func (c *Config) Tracing(serviceName string) tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}
