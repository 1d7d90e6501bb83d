package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/concord/internal/api"
	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/coordinator"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/concord/concord.db"

// EnvPrefix prefixes environment overrides, e.g. CONCORD_DATABASE_PATH.
const EnvPrefix = "CONCORD"

// Settings is the full application configuration.
type Settings struct {
	Database    DatabaseSettings   `mapstructure:"database"`
	Logging     LoggingSettings    `mapstructure:"logging"`
	Server      api.Config         `mapstructure:"server"`
	Coordinator coordinator.Config `mapstructure:"coordinator"`
}

// DatabaseSettings locates the SQLite database.
type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

// LoggingSettings configures slog.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		Database:    DatabaseSettings{Path: DefaultDatabasePath},
		Logging:     LoggingSettings{Level: "info", Format: "console"},
		Server:      api.DefaultConfig(),
		Coordinator: coordinator.DefaultConfig(),
	}
}

// Load overlays the values set in v onto the defaults.
func Load(v *viper.Viper) (Settings, error) {
	s := Default()
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	s.Database.Path = ExpandPath(s.Database.Path)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if s.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if _, err := s.Logging.SlogLevel(); err != nil {
		return err
	}
	switch s.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, s.Logging.Format)
	}
	return s.Coordinator.Validate()
}

// SlogLevel parses the configured level.
func (l LoggingSettings) SlogLevel() (slog.Level, error) {
	return common.ParseLevel(strings.ToLower(l.Level))
}

// NewViper returns a viper instance reading CONCORD_ environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
