package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := strings.TrimSpace(os.Getenv(envName))
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = strings.TrimSpace(os.Getenv(alt))
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// knownDrivers mirrors the sinks registered in internal/sink.
var knownDrivers = map[string]bool{"sqlite": true, "postgres": true}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Source validation
	if c.Source.RegionA == "" {
		errs = append(errs, "REGION_A_SOURCE is required")
	}
	if c.Source.RegionB == "" {
		errs = append(errs, "REGION_B_SOURCE is required")
	}
	if c.Source.RegionA != "" && filepath.Clean(c.Source.RegionA) == filepath.Clean(c.Source.RegionB) {
		errs = append(errs, "REGION_A_SOURCE and REGION_B_SOURCE must name different files")
	}

	// Destination validation
	c.Destination.Driver = strings.ToLower(c.Destination.Driver)
	if !knownDrivers[c.Destination.Driver] {
		errs = append(errs, fmt.Sprintf("DEST_DRIVER (%q) must be one of: postgres, sqlite", c.Destination.Driver))
	}
	if c.Destination.URL == "" {
		errs = append(errs, "DEST_URL is required")
	}
	if c.Destination.Table == "" {
		errs = append(errs, "DEST_TABLE must not be empty")
	}

	// Run validation
	if c.Run.Timeout < 0 {
		errs = append(errs, "RUN_TIMEOUT must be non-negative")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The destination URL is masked unless it is a SQLite file path.
func (c *Config) String() string {
	url := "[MASKED]"
	if c.Destination.Driver == "sqlite" {
		url = c.Destination.URL
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Source: {RegionA: %q, RegionB: %q}, ", c.Source.RegionA, c.Source.RegionB)
	fmt.Fprintf(&b, "Destination: {Driver: %q, URL: %s, Table: %q}, ", c.Destination.Driver, url, c.Destination.Table)
	fmt.Fprintf(&b, "Run: {Timeout: %s, MetricsTextfile: %q}, ", c.Run.Timeout, c.Run.MetricsTextfile)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
