package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/spool/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SPOOL_ prefix.
//
// Config precedence (highest to lowest):
//  1. Environment variables (SPOOL_STORAGE_BACKEND, SPOOL_EVENTSTREAM_TOPIC, etc.)
//  2. config.toml file values
//  3. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SPOOL_STORAGE_SQLITE_PATH, SPOOL_LOGGING_DEBUG, etc.
	v.SetEnvPrefix("SPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Event stream
	v.SetDefault("eventstream.enabled", d.EventStream.Enabled)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	// Logging
	v.SetDefault("logging.debug", d.Logging.Debug)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.json", d.Logging.JSON)
}

// FromViper materializes a Config from a viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Backend:     v.GetString("storage.backend"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		EventStream: EventStreamConfig{
			Enabled: v.GetBool("eventstream.enabled"),
			Brokers: v.GetStringSlice("eventstream.brokers"),
			Topic:   v.GetString("eventstream.topic"),
		},
		Logging: LoggingConfig{
			Debug:  v.GetBool("logging.debug"),
			Pretty: v.GetBool("logging.pretty"),
			JSON:   v.GetBool("logging.json"),
		},
	}
}
