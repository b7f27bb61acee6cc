// Package config provides configuration management for clipkit.
// It handles loading, validation and defaults for the retry policy, the
// environment mode, logging and the terminal and fetch collaborators.
//
// Configuration Sources:
//
// Configuration is resolved by viper with the following precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables
//  3. The config file
//  4. Default values (lowest priority)
//
// Config File:
//
// The file is optional. It is looked up as config.yaml (or .json, .toml) in
// $XDG_CONFIG_HOME/clipkit, falling back to ~/.config/clipkit. An explicit
// path can be given with --config.
//
// Environment Variables:
//
// Every key can be set from the environment with the CLIPKIT_ prefix and
// dots replaced by underscores:
//   - CLIPKIT_RETRIES: Number of retries after the first attempt
//   - CLIPKIT_RETRY_DELAY: Initial backoff delay (e.g. "100ms")
//   - CLIPKIT_TIMEOUT: Deadline for a whole operation, 0 for none
//   - CLIPKIT_MODE: auto, interactive or headless
//   - CLIPKIT_LOG_LEVEL / CLIPKIT_LOG_FORMAT: Logging setup
//   - CLIPKIT_TERMINAL_MULTIPLEXER: auto, none, tmux or screen
//   - CLIPKIT_TERMINAL_LIMIT: Maximum OSC52 payload in bytes
//   - CLIPKIT_FETCH_TIMEOUT: HTTP timeout for image URLs
//   - CLIPKIT_READ_MAX_SIZE: Maximum bytes read from clipboard utilities
//   - CLIPKIT_WATCH_INTERVAL / CLIPKIT_WATCH_IDLE_INTERVAL: Paste polling
//
// Validation:
//
// The configuration is validated to ensure:
//   - Retry settings describe a usable backoff schedule
//   - Mode, log level and format, and multiplexer are known names
//   - Sizes and intervals are positive
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Veraticus/clipkit/pkg/logging"
	"github.com/Veraticus/clipkit/pkg/osclip"
	"github.com/Veraticus/clipkit/pkg/retry"
	"github.com/Veraticus/clipkit/pkg/terminal"
)

// Mode forces the execution context instead of probing for it.
type Mode string

const (
	// ModeAuto probes the environment.
	ModeAuto Mode = "auto"
	// ModeInteractive forces the terminal document tier.
	ModeInteractive Mode = "interactive"
	// ModeHeadless forces the OS process tier.
	ModeHeadless Mode = "headless"
)

// Config holds all configuration for clipkit.
type Config struct {
	// Retry policy
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`

	// Environment
	Mode Mode `mapstructure:"mode"`

	Log      LogConfig      `mapstructure:"log"`
	Terminal TerminalConfig `mapstructure:"terminal"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Read     ReadConfig     `mapstructure:"read"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TerminalConfig configures the OSC52 document.
type TerminalConfig struct {
	Multiplexer string `mapstructure:"multiplexer"`
	Limit       int    `mapstructure:"limit"`
}

// FetchConfig configures image URL fetching.
type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReadConfig configures clipboard reads through OS utilities.
type ReadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

// WatchConfig configures the polling paste source.
type WatchConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	IdleInterval time.Duration `mapstructure:"idle_interval"`
}

// NewConfig creates a config with the defaults.
//
// Default values:
//   - Retries: 2, RetryDelay: 100ms, Timeout: none
//   - Mode: auto
//   - Log: info, console
//   - Terminal: auto multiplexer detection, no payload limit
//   - Fetch timeout: 30s
//   - Read max size: 10MB
//   - Watch: 500ms, slowing to 2s when idle
func NewConfig() *Config {
	return &Config{
		Retries:    retry.DefaultRetries,
		RetryDelay: retry.DefaultRetryDelay,
		Timeout:    0,
		Mode:       ModeAuto,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Terminal: TerminalConfig{
			Multiplexer: string(terminal.MultiplexerAuto),
		},
		Fetch: FetchConfig{Timeout: 30 * time.Second},
		Read:  ReadConfig{MaxSize: osclip.MaxClipboardSize},
		Watch: WatchConfig{
			Interval:     500 * time.Millisecond,
			IdleInterval: 2 * time.Second,
		},
	}
}

// Validate checks the configuration and normalizes names to lower case.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.RetryConfig().Validate(); err != nil {
		return err
	}

	c.Mode = Mode(strings.ToLower(string(c.Mode)))
	switch c.Mode {
	case "":
		c.Mode = ModeAuto
	case ModeAuto, ModeInteractive, ModeHeadless:
	default:
		return fmt.Errorf("invalid mode: %s (want auto, interactive or headless)", c.Mode)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (want console or json)", c.Log.Format)
	}

	if _, err := terminal.ParseMultiplexer(c.Terminal.Multiplexer); err != nil {
		return err
	}
	if c.Terminal.Limit < 0 {
		return fmt.Errorf("terminal limit must not be negative")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Read.MaxSize <= 0 {
		return fmt.Errorf("read max size must be positive")
	}
	if c.Watch.Interval <= 0 || c.Watch.IdleInterval < c.Watch.Interval {
		return fmt.Errorf("watch intervals must be positive and idle interval at least the interval")
	}
	return nil
}

// RetryConfig returns the retry policy.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		Retries:    c.Retries,
		RetryDelay: c.RetryDelay,
		Timeout:    c.Timeout,
	}
}

// LoggingConfig returns the zerolog setup. The level must have been
// validated.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Log.Format
	return cfg
}

// String returns a single-line summary for logging.
func (c *Config) String() string {
	timeout := "none"
	if c.Timeout > 0 {
		timeout = c.Timeout.String()
	}
	return fmt.Sprintf(
		"Config{Mode: %s, Retries: %d, RetryDelay: %s, Timeout: %s, Log: %s/%s, Multiplexer: %s}",
		c.Mode, c.Retries, c.RetryDelay, timeout, c.Log.Level, c.Log.Format, c.Terminal.Multiplexer,
	)
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"retries":     "retries",
	"retry-delay": "retry_delay",
	"timeout":     "timeout",
	"mode":        "mode",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"multiplexer": "terminal.multiplexer",
}

// Loader resolves a Config from defaults, file, environment and flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with the default search paths and the
// CLIPKIT_ environment prefix.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName("config")
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("CLIPKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &Loader{v: v}
	l.setDefaults()
	return l
}

func (l *Loader) setDefaults() {
	d := NewConfig()
	l.v.SetDefault("retries", d.Retries)
	l.v.SetDefault("retry_delay", d.RetryDelay)
	l.v.SetDefault("timeout", d.Timeout)
	l.v.SetDefault("mode", string(d.Mode))
	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.format", d.Log.Format)
	l.v.SetDefault("terminal.multiplexer", d.Terminal.Multiplexer)
	l.v.SetDefault("terminal.limit", d.Terminal.Limit)
	l.v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	l.v.SetDefault("read.max_size", d.Read.MaxSize)
	l.v.SetDefault("watch.interval", d.Watch.Interval)
	l.v.SetDefault("watch.idle_interval", d.Watch.IdleInterval)
}

// SetConfigFile uses path instead of searching for config.yaml. A missing
// explicit file is an error.
func (l *Loader) SetConfigFile(path string) {
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

// BindFlags binds the known flags present in flags. Flags that were not set
// on the command line do not override file or environment values.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file when present, applies environment and flags,
// and validates the result.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the file the last Load read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Dir returns the clipkit config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "clipkit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "clipkit"), nil
}
