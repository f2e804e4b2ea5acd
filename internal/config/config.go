// Package config provides centralized configuration for a pipeline run.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all run configuration.
// All settings can be configured via environment variables.
type Config struct {
	Source      SourceConfig
	Destination DestinationConfig
	Run         RunConfig
	Logging     LoggingConfig
}

// SourceConfig names the two regional spreadsheets.
type SourceConfig struct {
	// RegionA is the path of the region A spreadsheet (.csv, .xlsx or .xlsm)
	RegionA string `env:"REGION_A_SOURCE" required:"true"`

	// RegionB is the path of the region B spreadsheet (.csv, .xlsx or .xlsm)
	RegionB string `env:"REGION_B_SOURCE" required:"true"`
}

// DestinationConfig holds sink settings.
type DestinationConfig struct {
	// Driver selects the sink: sqlite or postgres (default: sqlite)
	Driver string `env:"DEST_DRIVER" default:"sqlite"`

	// URL is the SQLite file path or PostgreSQL connection string (default: sales_data.db)
	// Supports both DEST_URL and DATABASE_URL env vars
	URL string `env:"DEST_URL" envAlt:"DATABASE_URL" default:"sales_data.db"`

	// Table is the destination table, replaced on every run (default: sales_data)
	Table string `env:"DEST_TABLE" default:"sales_data"`
}

// RunConfig holds settings for a single pipeline run.
type RunConfig struct {
	// Timeout bounds the whole run; 0 disables it (default: 0s)
	Timeout time.Duration `env:"RUN_TIMEOUT" default:"0s"`

	// MetricsTextfile is where run metrics are written in Prometheus text format.
	// Empty disables metrics output.
	MetricsTextfile string `env:"METRICS_TEXTFILE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
