// Package config loads the settings of the born command line tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/serialization"
)

// Config holds all tool configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Record  RecordConfig  `yaml:"record"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // human-friendly output and stack traces on warn
	Encoding    string `yaml:"encoding"`    // console or json
}

// RecordConfig configures how records are written and read.
type RecordConfig struct {
	Precision    string `yaml:"precision"`     // half, full or double
	Format       string `yaml:"format"`        // born or yaml
	SkipChecksum bool   `yaml:"skip_checksum"` // skip SHA-256 verification on read
	Validation   string `yaml:"validation"`    // none, normal or strict
}

// Supported values.
var (
	ValidLevels    = []string{"debug", "info", "warn", "error"}
	ValidEncodings = []string{"console", "json"}
	ValidFormats   = []string{"born", "yaml"}
)

// Environment variables that override file settings.
const (
	EnvLogLevel  = "BORN_LOG_LEVEL"
	EnvPrecision = "BORN_PRECISION"
	EnvFormat    = "BORN_FORMAT"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Record: RecordConfig{
			Precision:  record.FullPrecision.Name,
			Format:     "born",
			Validation: serialization.ValidationStrict.String(),
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrecision); v != "" {
		c.Record.Precision = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Record.Format = v
	}
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if !slices.Contains(ValidLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if !slices.Contains(ValidEncodings, c.Logging.Encoding) {
		return fmt.Errorf("invalid log encoding: %s (valid: %v)", c.Logging.Encoding, ValidEncodings)
	}
	if !slices.Contains(ValidFormats, c.Record.Format) {
		return fmt.Errorf("invalid record format: %s (valid: %v)", c.Record.Format, ValidFormats)
	}
	if _, err := record.ParsePrecision(c.Record.Precision); err != nil {
		return err
	}
	if _, err := serialization.ParseValidationLevel(c.Record.Validation); err != nil {
		return err
	}
	return nil
}

// Precision returns the configured precision settings.
func (c *Config) Precision() record.PrecisionSettings {
	s, err := record.ParsePrecision(c.Record.Precision)
	if err != nil {
		return record.FullPrecision
	}
	return s
}

// ReaderOptions returns the serialization options for reading records.
func (c *Config) ReaderOptions() serialization.ReaderOptions {
	opts := serialization.DefaultReaderOptions()
	opts.SkipChecksumValidation = c.Record.SkipChecksum
	if level, err := serialization.ParseValidationLevel(c.Record.Validation); err == nil {
		opts.ValidationLevel = level
	}
	return opts
}
