package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aatuh/radioclock/envvar"
	"github.com/aatuh/radioclock/zones"
)

type Config struct {
	Addr     string `env:"API_ADDR"`  // ":8000"
	LogLevel string `env:"LOG_LEVEL"` // "debug"|"info"|"warn"|"error"
	Env      string `env:"ENV"`       // "development"|"staging"|"production"

	TimeAPIBaseURL   string        `env:"TIMEAPI_BASE_URL"`   // "https://timeapi.io"
	TimeAPITimeout   time.Duration `env:"TIMEAPI_TIMEOUT"`    // "10s"
	TimeAPIRetries   int           `env:"TIMEAPI_RETRIES"`    // 0 disables retry
	TimeAPIRetryBase time.Duration `env:"TIMEAPI_RETRY_BASE"` // "200ms"

	DefaultZone string `env:"DEFAULT_ZONE"` // "Asia/Tokyo"
	MaxWidgets  int    `env:"MAX_WIDGETS"`  // 100
}

// Load reads config from the environment, after loading .env files when
// present.
func Load() (Config, error) {
	adapter := envvar.New()
	adapter.LoadEnvFiles([]string{".env", "/env/.env"})

	cfg := Config{
		Addr:           adapter.GetOr("API_ADDR", ":8000"),
		LogLevel:       adapter.GetOr("LOG_LEVEL", "info"),
		Env:            adapter.GetOr("ENV", "development"),
		TimeAPIBaseURL: adapter.GetOr("TIMEAPI_BASE_URL", "https://timeapi.io"),
		DefaultZone:    adapter.GetOr("DEFAULT_ZONE", zones.Default),
	}

	var errs []error
	var err error
	if cfg.TimeAPITimeout, err = adapter.GetDurationOr("TIMEAPI_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.TimeAPIRetries, err = adapter.GetIntOr("TIMEAPI_RETRIES", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.TimeAPIRetryBase, err = adapter.GetDurationOr("TIMEAPI_RETRY_BASE", 200*time.Millisecond); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxWidgets, err = adapter.GetIntOr("MAX_WIDGETS", 100); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Keys lists the environment variables Load reads.
var Keys = []string{
	"API_ADDR", "LOG_LEVEL", "ENV",
	"TIMEAPI_BASE_URL", "TIMEAPI_TIMEOUT", "TIMEAPI_RETRIES", "TIMEAPI_RETRY_BASE",
	"DEFAULT_ZONE", "MAX_WIDGETS",
}

// Overrides returns the variables explicitly set in the environment, for
// startup logging.
func Overrides() map[string]string {
	return envvar.New().DumpRedacted(Keys...)
}

// Validate checks value ranges that the typed getters cannot.
func (c Config) Validate() error {
	u, err := url.Parse(c.TimeAPIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("TIMEAPI_BASE_URL: invalid url %q", c.TimeAPIBaseURL)
	}
	if c.TimeAPIRetries < 0 {
		return fmt.Errorf("TIMEAPI_RETRIES: must be >= 0, got %d", c.TimeAPIRetries)
	}
	if c.MaxWidgets < 1 {
		return fmt.Errorf("MAX_WIDGETS: must be >= 1, got %d", c.MaxWidgets)
	}
	if c.TimeAPITimeout <= 0 {
		return fmt.Errorf("TIMEAPI_TIMEOUT: must be positive, got %s", c.TimeAPITimeout)
	}
	if !zones.Contains(c.DefaultZone) {
		return fmt.Errorf("DEFAULT_ZONE: %w: %s", zones.ErrUnknownZone, c.DefaultZone)
	}
	return nil
}
