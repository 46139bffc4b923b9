package config

// Recognized storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const (
	defaultBackend    = BackendSQLite
	defaultSQLitePath = "spool.db"

	defaultTopic = "spool.nodes"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Backend:    defaultBackend,
			SQLitePath: defaultSQLitePath,
		},
		EventStream: EventStreamConfig{
			Enabled: false,
			Topic:   defaultTopic,
		},
		Logging: LoggingConfig{
			Pretty: true,
		},
	}
}
