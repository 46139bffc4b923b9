package config

// Config represents the persistent spool configuration stored as config.toml
// in the .spool/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Logging     LoggingConfig     `toml:"logging"`
}

// StorageConfig selects and parameterizes the record log backend.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite", "postgres".
	Backend string `toml:"backend,omitempty"`

	// SQLitePath is the database file for the sqlite backend
	// (":memory:" for ephemeral stores).
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig holds settings for publishing node-persisted events.
type EventStreamConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Debug  bool `toml:"debug,omitempty"`
	Pretty bool `toml:"pretty,omitempty"`
	JSON   bool `toml:"json,omitempty"`
}
