// Package config defines daemon configuration and loading.
//
// Conventions follow the rest of the repo: defaults come from New, Load
// layers an optional YAML file and environment variables on top, and
// validation errors use this package's sentinel kinds.
package config

// Config contains process configuration shared by both daemons.
type Config struct {
	// DatabaseURL is the Postgres DSN used by the recompute daemon.
	// The bare DATABASE_URL environment variable is honored as an
	// override for compatibility with existing deployments.
	DatabaseURL string `koanf:"database_url"`

	// LogLevel controls diagnostic verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr enables a /metrics listener when non-empty, e.g. ":9187".
	MetricsAddr string `koanf:"metrics_addr"`

	// Migrate applies the embedded schema on startup when true.
	Migrate bool `koanf:"migrate"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		DatabaseURL: "postgres://skillpoints@127.0.0.1:5432/skillpoints",
		LogLevel:    "info",
		MetricsAddr: "",
		Migrate:     false,
	}
}
