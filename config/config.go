package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Mode is the runtime mode of the process
type Mode string

const (
	// ModeDevelopment exposes error details and uses developer-friendly logging (default)
	ModeDevelopment Mode = "development"
	// ModeProduction hides internal error details and requires persistence and cache URLs
	ModeProduction Mode = "production"
	// ModeTest suppresses request logging
	ModeTest Mode = "test"
)

// Environment variable names
const (
	EnvMode           = "NODE_ENV"
	EnvPort           = "PORT"
	EnvFrontendURL    = "FRONTEND_URL"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvRedisURL       = "REDIS_URL"
	EnvMetricsEnabled = "METRICS_ENABLED"
)

// EnvNames lists every variable the configuration reads
var EnvNames = []string{EnvMode, EnvPort, EnvFrontendURL, EnvDatabaseURL, EnvRedisURL, EnvMetricsEnabled}

// Defaults
const (
	DefaultMode        = ModeDevelopment
	DefaultPort        = 3000
	DefaultFrontendURL = "http://localhost:5173"
)

// Config is the validated process configuration. It is built once at startup
// and shared read-only; nothing may modify it after Load returns.
type Config struct {
	Mode        Mode   `env:"NODE_ENV" validate:"oneof=development production test"`
	Port        int    `env:"PORT" validate:"min=1,max=65535"`
	FrontendURL string `env:"FRONTEND_URL" validate:"url"`

	// DatabaseURL and RedisURL are optional outside production
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=Mode production"`
	RedisURL    string `env:"REDIS_URL" validate:"required_if=Mode production"`

	MetricsEnabled bool `env:"METRICS_ENABLED"`
}

// IsDevelopment returns true in development mode
func (c *Config) IsDevelopment() bool {
	return c.Mode == ModeDevelopment
}

// IsProduction returns true in production mode
func (c *Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

// IsTest returns true in test mode
func (c *Config) IsTest() bool {
	return c.Mode == ModeTest
}

// Addr returns the listen address for the configured port
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// newViper returns an isolated viper instance with defaults applied.
// The global viper instance is never used.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(EnvMode, string(DefaultMode))
	v.SetDefault(EnvPort, strconv.Itoa(DefaultPort))
	v.SetDefault(EnvFrontendURL, DefaultFrontendURL)
	v.SetDefault(EnvDatabaseURL, "")
	v.SetDefault(EnvRedisURL, "")
	v.SetDefault(EnvMetricsEnabled, "false")
	return v
}

// Load validates raw environment values. It has no side effects; every
// problem found is reported in the returned *ValidationError.
func Load(env map[string]string) (*Config, error) {
	v := newViper()
	if err := v.MergeConfigMap(present(env)); err != nil {
		return nil, fmt.Errorf("unable to merge environment: %w", err)
	}
	return decode(v)
}

// LoadFile reads an optional dotenv file and overlays the process
// environment on top of it. A missing file is not an error.
func LoadFile(path string, environ []string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("unable to read env file %s: %w", path, err)
		}
	}
	if err := v.MergeConfigMap(present(FromEnviron(environ))); err != nil {
		return nil, fmt.Errorf("unable to merge environment: %w", err)
	}
	return decode(v)
}

// FromEnviron converts os.Environ() style "KEY=value" pairs into a map
func FromEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// present keeps the recognised variables, matched by exact name, and drops
// empty values so they fall back to defaults like unset variables
func present(env map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(EnvNames))
	for _, key := range EnvNames {
		value, ok := env[key]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func decode(v *viper.Viper) (*Config, error) {
	errs := make(fieldErrors)

	cfg := &Config{
		Mode:        Mode(strings.TrimSpace(v.GetString(EnvMode))),
		Port:        DefaultPort,
		FrontendURL: strings.TrimSpace(v.GetString(EnvFrontendURL)),
		DatabaseURL: strings.TrimSpace(v.GetString(EnvDatabaseURL)),
		RedisURL:    strings.TrimSpace(v.GetString(EnvRedisURL)),
	}

	rawPort := strings.TrimSpace(v.GetString(EnvPort))
	if port, err := strconv.Atoi(rawPort); err != nil {
		errs.add(EnvPort, fmt.Sprintf("must be an integer, received %q", rawPort))
	} else {
		cfg.Port = port
	}

	rawMetrics := strings.TrimSpace(v.GetString(EnvMetricsEnabled))
	if enabled, err := strconv.ParseBool(rawMetrics); err != nil {
		errs.add(EnvMetricsEnabled, fmt.Sprintf("must be a boolean, received %q", rawMetrics))
	} else {
		cfg.MetricsEnabled = enabled
	}

	validateConfig(cfg, errs)

	if len(errs) > 0 {
		return nil, &ValidationError{FieldErrors: errs}
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}
