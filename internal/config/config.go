// Package config loads runledger configuration from YAML files and
// RUNLEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: database.path is read
// from RUNLEDGER_DATABASE_PATH.
const EnvPrefix = "RUNLEDGER"

// ProjectConfigName is the file looked up in the working directory.
const ProjectConfigName = "runledger.yaml"

// Config is the complete runledger configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	// Identity is the caller identity used by the CLI for mutating commands.
	Identity string    `mapstructure:"identity"`
	Log      LogConfig `mapstructure:"log"`
	// Verifiers lists the verifier clients. A list rather than a map
	// because identities contain dots, which viper treats as key separators.
	Verifiers []VerifierConfig `mapstructure:"verifiers"`
	Dispatch  DispatchConfig   `mapstructure:"dispatch"`
	Events    EventsConfig     `mapstructure:"events"`
	Commit    CommitConfig     `mapstructure:"commit"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn"`
}

// Target returns the path or DSN for the configured driver.
func (d DatabaseConfig) Target() string {
	if d.Driver == "postgres" {
		return d.DSN
	}
	return d.Path
}

// LogConfig holds diagnostics settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// VerifierConfig describes one HTTP verifier client.
type VerifierConfig struct {
	// ID is the verifier identity as recorded by set-verifier.
	ID       string        `mapstructure:"id"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DispatchConfig limits the rate of verifier calls. Rate 0 means unlimited.
type DispatchConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// EventsConfig selects the sinks commitment events are published to.
type EventsConfig struct {
	// Log writes NEP-297 EVENT_JSON lines to stdout.
	Log   bool        `mapstructure:"log"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the Redis stream sink. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// Enabled reports whether the Redis sink is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// CommitConfig holds commit validation settings.
type CommitConfig struct {
	StrictAmounts bool `mapstructure:"strict_amounts"`
}

// Load loads configuration.
//
// With an explicit path, only that file is read and it must exist.
// Otherwise the user config ($XDG_CONFIG_HOME/runledger/config.yaml) is
// read, then ./runledger.yaml is merged over it; both are optional.
// Environment variables take precedence over files.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(UserConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading user config: %w", err)
			}
		}

		if _, err := os.Stat(ProjectConfigName); err == nil {
			project := viper.New()
			project.SetConfigFile(ProjectConfigName)
			if err := project.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading project config: %w", err)
			}
			if err := v.MergeConfigMap(project.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "runledger.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Dispatch: DispatchConfig{
			Burst: 1,
		},
		Events: EventsConfig{
			Log: true,
			Redis: RedisConfig{
				Stream: "runledger:events",
			},
		},
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver %q: must be sqlite or postgres", c.Database.Driver)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q: must be text or json", c.Log.Format)
	}

	if c.Dispatch.Rate < 0 {
		return fmt.Errorf("dispatch.rate must not be negative")
	}
	if c.Dispatch.Burst < 0 {
		return fmt.Errorf("dispatch.burst must not be negative")
	}

	seen := make(map[string]bool, len(c.Verifiers))
	for i, vc := range c.Verifiers {
		if vc.ID == "" {
			return fmt.Errorf("verifiers[%d].id is required", i)
		}
		if seen[vc.ID] {
			return fmt.Errorf("verifiers[%d]: duplicate id %q", i, vc.ID)
		}
		seen[vc.ID] = true
		if vc.Endpoint == "" {
			return fmt.Errorf("verifiers[%d].endpoint is required", i)
		}
		if vc.Timeout < 0 {
			return fmt.Errorf("verifiers[%d].timeout must not be negative", i)
		}
	}

	return nil
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q: must be debug, info, warn or error", level)
	}
}

// UserConfigDir returns the XDG config directory for runledger.
func UserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "runledger")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "runledger")
	}
	return filepath.Join(home, ".config", "runledger")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("identity", "")

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("dispatch.rate", d.Dispatch.Rate)
	v.SetDefault("dispatch.burst", d.Dispatch.Burst)

	v.SetDefault("events.log", d.Events.Log)
	v.SetDefault("events.redis.addr", d.Events.Redis.Addr)
	v.SetDefault("events.redis.password", d.Events.Redis.Password)
	v.SetDefault("events.redis.db", d.Events.Redis.DB)
	v.SetDefault("events.redis.stream", d.Events.Redis.Stream)
	v.SetDefault("events.redis.max_len", d.Events.Redis.MaxLen)

	v.SetDefault("commit.strict_amounts", d.Commit.StrictAmounts)
}
