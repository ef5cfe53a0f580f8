// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Run      RunConfig
	Session  SessionConfig
	View     ViewConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// AnalysisConfig describes the remote analysis service.
type AnalysisConfig struct {
	// BaseURL is the root URL of the analysis service (required)
	// Supports both ANALYSIS_BASE_URL and ML_SERVICE_URL
	BaseURL string `env:"ANALYSIS_BASE_URL" envAlt:"ML_SERVICE_URL" required:"true"`

	// UploadPath is the endpoint that receives the dataset first (default: upload_csv)
	UploadPath string `env:"ANALYSIS_UPLOAD_PATH" default:"upload_csv"`

	// CallTimeout bounds every individual upload or analysis call (default: 5m)
	CallTimeout time.Duration `env:"ANALYSIS_CALL_TIMEOUT" default:"5m"`

	// MaxParallel caps in-flight analysis calls per run, 0 issues all at once (default: 0)
	MaxParallel int `env:"ANALYSIS_MAX_PARALLEL" default:"0"`

	// ScaledRevenue asks the geography analysis for per-customer revenue (default: false)
	ScaledRevenue bool `env:"ANALYSIS_SCALED_REVENUE" default:"false"`
}

// RunConfig holds orchestration run limits.
type RunConfig struct {
	// MaxFileSize is the maximum allowed upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"RUN_MAX_FILE_SIZE" envAlt:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of runs allowed across all sessions (default: 4)
	MaxConcurrent int `env:"RUN_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"RUN_MAX_WAIT" default:"30s"`

	// Timeout is the maximum duration of a whole run (default: 10m)
	Timeout time.Duration `env:"RUN_TIMEOUT" default:"10m"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// CookieName is the name of the session cookie (default: insights_session)
	CookieName string `env:"SESSION_COOKIE" default:"insights_session"`

	// TTL is how long an idle session and its report are kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are dropped (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`
}

// ViewConfig holds table and chart rendering settings.
type ViewConfig struct {
	// PageSize is the number of table rows per page (default: 10)
	PageSize int `env:"VIEW_PAGE_SIZE" default:"10"`

	// ChartWidth is the exported chart width in pixels (default: 960)
	ChartWidth int `env:"CHART_WIDTH" default:"960"`

	// ChartHeight is the exported chart height in pixels (default: 480)
	ChartHeight int `env:"CHART_HEIGHT" default:"480"`
}

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerSecond is the sustained rate per client IP (default: 20)
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" default:"20"`

	// Burst is the bucket size per client IP (default: 40)
	Burst int `env:"RATE_LIMIT_BURST" default:"40"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins is a comma-separated CORS allow list for /api (default: none)
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DatabaseConfig holds the optional run history database.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty keeps history in memory
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// HistoryLimit is how many runs the in-memory history keeps (default: 200)
	HistoryLimit int `env:"RUN_HISTORY_LIMIT" default:"200"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
