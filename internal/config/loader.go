package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, ok := lookup(envName, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// lookup returns the first non-empty value of the primary or alternate variable.
func lookup(primary, alt string) (string, bool) {
	if v := os.Getenv(primary); v != "" {
		return v, true
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v, true
		}
	}
	return "", false
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if u, err := url.Parse(c.Analysis.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("ANALYSIS_BASE_URL (%q) must be an absolute http(s) URL", c.Analysis.BaseURL))
	}
	if c.Analysis.UploadPath == "" {
		errs = append(errs, "ANALYSIS_UPLOAD_PATH must not be empty")
	}
	if c.Analysis.CallTimeout <= 0 {
		errs = append(errs, "ANALYSIS_CALL_TIMEOUT must be positive")
	}
	if c.Analysis.MaxParallel < 0 {
		errs = append(errs, "ANALYSIS_MAX_PARALLEL must be non-negative")
	}

	if c.Run.MaxFileSize <= 0 {
		errs = append(errs, "RUN_MAX_FILE_SIZE must be positive")
	}
	if c.Run.MaxConcurrent <= 0 {
		errs = append(errs, "RUN_MAX_CONCURRENT must be positive")
	}
	if c.Run.MaxWaitTime <= 0 {
		errs = append(errs, "RUN_MAX_WAIT must be positive")
	}
	if c.Run.Timeout < c.Analysis.CallTimeout {
		errs = append(errs, fmt.Sprintf("RUN_TIMEOUT (%s) must be >= ANALYSIS_CALL_TIMEOUT (%s)",
			c.Run.Timeout, c.Analysis.CallTimeout))
	}

	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE must not be empty")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be positive")
	}

	if c.View.PageSize <= 0 {
		errs = append(errs, "VIEW_PAGE_SIZE must be positive")
	}
	if c.View.ChartWidth <= 0 || c.View.ChartHeight <= 0 {
		errs = append(errs, "CHART_WIDTH and CHART_HEIGHT must be positive")
	}

	if c.Rate.Enabled && (c.Rate.RequestsPerSecond <= 0 || c.Rate.Burst <= 0) {
		errs = append(errs, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	if c.Database.URL != "" && c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.HistoryLimit <= 0 {
		errs = append(errs, "RUN_HISTORY_LIMIT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Analysis: {BaseURL: %q, CallTimeout: %s, MaxParallel: %d}, ",
		c.Analysis.BaseURL, c.Analysis.CallTimeout, c.Analysis.MaxParallel)
	fmt.Fprintf(&b, "Run: {MaxFileSize: %d, MaxConcurrent: %d, Timeout: %s}, ",
		c.Run.MaxFileSize, c.Run.MaxConcurrent, c.Run.Timeout)
	fmt.Fprintf(&b, "Session: {TTL: %s}, ", c.Session.TTL)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RPS: %g, Burst: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerSecond, c.Rate.Burst)
	fmt.Fprintf(&b, "Security: {APIKeys: %d configured}, ", len(c.Security.APIKeys))
	if c.Database.URL != "" {
		b.WriteString("Database: {URL: [MASKED]}, ")
	}
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
