// Package config loads mcptoolkit command settings from a YAML file, MCPTOOLKIT_* environment
// variables and defaults, in that order of precedence after flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. MCPTOOLKIT_LOG_LEVEL.
const EnvPrefix = "MCPTOOLKIT"

// Notes backends.
const (
	NotesMemory = "memory"
	NotesSQLite = "sqlite"
)

// Config holds the command configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Dispatcher struct {
		DefaultTimeout time.Duration `mapstructure:"default_timeout"`
		RecoverPanics  bool          `mapstructure:"recover_panics"`
		WorkerShim     bool          `mapstructure:"worker_shim"`
	} `mapstructure:"dispatcher"`

	Notes struct {
		Backend string `mapstructure:"backend"`
		DSN     string `mapstructure:"dsn"`
	} `mapstructure:"notes"`

	Server struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
	} `mapstructure:"server"`

	Telemetry bool `mapstructure:"telemetry"`
	Tracking  bool `mapstructure:"tracking"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json", "logfmt"}
)

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("dispatcher.default_timeout", 30*time.Second)
	v.SetDefault("dispatcher.recover_panics", true)
	v.SetDefault("dispatcher.worker_shim", true)
	v.SetDefault("notes.backend", NotesMemory)
	v.SetDefault("notes.dsn", "notes.db")
	v.SetDefault("server.name", "mcptoolkit")
	v.SetDefault("server.version", "dev")
	v.SetDefault("telemetry", false)
	v.SetDefault("tracking", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if not empty) into v and decodes the result. A missing path is an error;
// without a path only defaults and the environment apply.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("config: log.level %q must be one of %v", c.Log.Level, logLevels))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("config: log.format %q must be one of %v", c.Log.Format, logFormats))
	}
	if c.Dispatcher.DefaultTimeout < 0 {
		errs = append(errs, errors.New("config: dispatcher.default_timeout must not be negative"))
	}
	switch c.Notes.Backend {
	case NotesMemory:
	case NotesSQLite:
		if strings.TrimSpace(c.Notes.DSN) == "" {
			errs = append(errs, errors.New("config: notes.dsn is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: notes.backend %q must be %q or %q", c.Notes.Backend, NotesMemory, NotesSQLite))
	}
	return errors.Join(errs...)
}
