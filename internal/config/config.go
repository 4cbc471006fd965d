package config

// Config represents the aduck configuration profile
type Config struct {
	// Database connection profile
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Scheduled checkpointing
	Checkpoint CheckpointConfig `json:"checkpoint" mapstructure:"checkpoint"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// DatabaseConfig identifies the target database and its driver options
type DatabaseConfig struct {
	// Target is the database location, e.g. a file path or ":memory:"
	Target string `json:"target" mapstructure:"target"`

	// Options are driver-specific and passed through opaquely
	Options map[string]string `json:"options" mapstructure:"options"`
}

// CheckpointConfig controls the background checkpointer
type CheckpointConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Listen  string `json:"listen" mapstructure:"listen"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Target:  ":memory:",
			Options: map[string]string{},
		},
		Checkpoint: CheckpointConfig{
			Enabled:  false,
			Schedule: "@hourly",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9126",
		},
	}
}
