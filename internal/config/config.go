// Package config loads runtime settings from defaults, an optional eventscrape.yaml and
// EVENTSCRAPE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/noise"
	"github.com/pfrederiksen/eventscrape/internal/textmine"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "EVENTSCRAPE"

	DefaultUserAgent = "eventscrape/1.0 (github.com/pfrederiksen/eventscrape)"
	DefaultTimeout   = 30 * time.Second
	DefaultDataDir   = "~/.eventscrape"
)

// Config is the full runtime configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Registry RegistryConfig `mapstructure:"registry"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Dates    DatesConfig    `mapstructure:"dates"`
	Noise    noise.Config   `mapstructure:"noise"`
	TextMine TextMineConfig `mapstructure:"textmine"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type RegistryConfig struct {
	// Path of the handler registration YAML; empty uses the built-in registrations
	Path string `mapstructure:"path"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type DatesConfig struct {
	Locale   string `mapstructure:"locale"`
	Timezone string `mapstructure:"timezone"`
}

type TextMineConfig struct {
	MaxFragmentLength int `mapstructure:"max_fragment_length"`
}

// Location resolves the configured timezone, UTC when unset
func (d DatesConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("registry.path", "")
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout", DefaultTimeout)
	v.SetDefault("storage.data_dir", DefaultDataDir)
	v.SetDefault("dates.locale", "")
	v.SetDefault("dates.timezone", "")
	v.SetDefault("noise.labels", noise.DefaultLabels)
	v.SetDefault("noise.repeat_threshold", noise.DefaultRepeatThreshold)
	v.SetDefault("noise.min_content_length", noise.DefaultMinContentLength)
	v.SetDefault("textmine.max_fragment_length", textmine.DefaultMaxFragmentLength)
}

// New returns a viper instance with defaults and environment binding applied. When
// path is set the file must exist; otherwise eventscrape.yaml is looked up in the
// working directory and $HOME/.eventscrape and may be absent.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("eventscrape")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.eventscrape")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration. See New for the file lookup.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes and validates a prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding: must be json or console, got %q", c.Log.Encoding)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout: must be positive, got %s", c.Fetch.Timeout)
	}
	if _, err := c.Dates.Location(); err != nil {
		return fmt.Errorf("dates.timezone: %w", err)
	}
	if c.Noise.RepeatThreshold < 1 {
		return fmt.Errorf("noise.repeat_threshold: must be at least 1, got %d", c.Noise.RepeatThreshold)
	}
	return nil
}
