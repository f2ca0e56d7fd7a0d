package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "crosstalk"
	configType = "yaml"
	envPrefix  = "CROSSTALK"
)

// Config holds the runtime settings of the coordination layer.
type Config struct {
	// PollInterval is the cross-process store polling cadence.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// RefreshInterval is the world snapshot auto-refresh cadence.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// MaxTurns caps dialogue session length.
	MaxTurns int `mapstructure:"max_turns"`
	// StorePath is the SQLite database file; empty selects the in-memory store.
	StorePath string `mapstructure:"store_path"`
	// Provider selects the LLM backend: "openai", "anthropic" or "mock".
	Provider string `mapstructure:"provider"`
	// Model is the provider model name; empty uses the provider default.
	Model string `mapstructure:"model"`
	// EventCapacity bounds the recent-event ring buffer.
	EventCapacity int `mapstructure:"event_capacity"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration from the given directories (falling back to the
// current directory), layering CROSSTALK_* environment variables over the
// file and defaults over both. A missing config file is not an error.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if len(configPaths) == 0 {
		configPaths = []string{"."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("poll_interval", 5*time.Second)
	v.SetDefault("refresh_interval", 30*time.Second)
	v.SetDefault("max_turns", 6)
	v.SetDefault("store_path", "")
	v.SetDefault("provider", "mock")
	v.SetDefault("model", "")
	v.SetDefault("event_capacity", 100)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would break the runtime loops.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max_turns must be positive, got %d", c.MaxTurns)
	}
	if c.EventCapacity <= 0 {
		return fmt.Errorf("event_capacity must be positive, got %d", c.EventCapacity)
	}
	switch c.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}
