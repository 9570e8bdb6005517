// Package config loads ghactivity settings from a YAML file, GHACTIVITY_*
// environment variables and built-in defaults, in that order of precedence
// from lowest to highest: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/memostore/cache"
	"github.com/jonwraymond/memostore/observe"
)

// AppName names the config and cache directories.
const AppName = "ghactivity"

// EnvPrefix prefixes every environment override, e.g. GHACTIVITY_CACHE_PATH.
const EnvPrefix = "GHACTIVITY"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config stores all configuration of the application.
type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// File is the config file that was read, or empty when none was found.
	File string `mapstructure:"-"`
}

// CacheConfig configures the persistent memoization store.
type CacheConfig struct {
	Path     string `mapstructure:"path"`
	Capacity int    `mapstructure:"capacity"`
	Atomic   bool   `mapstructure:"atomic"` // write via temp file and rename
}

// GitHubConfig configures the remote client.
type GitHubConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"` // may be a secretref
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig selects exporters. "none" disables a signal.
type TelemetryConfig struct {
	Tracing   string  `mapstructure:"tracing"`
	Metrics   string  `mapstructure:"metrics"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

// DefaultCachePath returns the cache file under the user cache directory.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName, "cache.json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("cache.capacity", cache.DefaultCapacity)
	v.SetDefault("cache.atomic", false)

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", "10s")
	v.SetDefault("github.retries", 3)

	v.SetDefault("log.level", "warn")

	v.SetDefault("telemetry.tracing", "none")
	v.SetDefault("telemetry.metrics", "none")
	v.SetDefault("telemetry.sample_pct", 1.0)
}

// Load reads configuration. An explicit path must exist; with an empty path
// the working directory and the user config directory are searched for
// config.yaml, and a missing file means defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// cache.path becomes GHACTIVITY_CACHE_PATH
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unable to decode into struct: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		return fmt.Errorf("%w: cache.path is empty", ErrInvalidConfig)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("%w: cache.capacity must be at least 1, got %d", ErrInvalidConfig, c.Cache.Capacity)
	}

	u, err := url.Parse(c.GitHub.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: github.base_url %q is not an http(s) URL", ErrInvalidConfig, c.GitHub.BaseURL)
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("%w: github.timeout must be positive, got %s", ErrInvalidConfig, c.GitHub.Timeout)
	}
	if c.GitHub.Retries < 1 {
		return fmt.Errorf("%w: github.retries must be at least 1, got %d", ErrInvalidConfig, c.GitHub.Retries)
	}

	if !slices.Contains(observe.ValidLogLevels, c.Log.Level) {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	if !slices.Contains(observe.ValidTracingExporters, c.Telemetry.Tracing) {
		return fmt.Errorf("%w: telemetry.tracing %q", ErrInvalidConfig, c.Telemetry.Tracing)
	}
	if !slices.Contains(observe.ValidMetricsExporters, c.Telemetry.Metrics) {
		return fmt.Errorf("%w: telemetry.metrics %q", ErrInvalidConfig, c.Telemetry.Metrics)
	}
	if c.Telemetry.SamplePct < 0 || c.Telemetry.SamplePct > 1 {
		return fmt.Errorf("%w: telemetry.sample_pct must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Observe maps the settings onto an observe.Config.
func (c *Config) Observe(version string) observe.Config {
	enabled := func(exporter string) bool { return exporter != "" && exporter != "none" }
	return observe.Config{
		ServiceName: AppName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   enabled(c.Telemetry.Tracing),
			Exporter:  c.Telemetry.Tracing,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  enabled(c.Telemetry.Metrics),
			Exporter: c.Telemetry.Metrics,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
		},
	}
}
