// Package config provides configuration loading and management for Semcube.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semcube/convert"
)

// Sink kinds for indexing runs.
const (
	// SinkAuto writes to NATS KV when a NATS URL is configured and keeps
	// documents in memory otherwise.
	SinkAuto   = ""
	SinkMemory = "memory"
	SinkKV     = "kv"
)

// Config represents the complete Semcube configuration
type Config struct {
	// Conversion shapes projected documents.
	Conversion convert.Configuration `yaml:"conversion"`
	// Profile is the path to the schema profile YAML.
	Profile string        `yaml:"profile"`
	Index   IndexConfig   `yaml:"index"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	// LogLevel is one of debug, info, warn, error (default: info)
	LogLevel string `yaml:"log_level"`
}

// IndexConfig configures the indexing service
type IndexConfig struct {
	// Folder holds the index and collection definitions
	Folder string `yaml:"folder"`
	// Sink is "memory", "kv" or empty for automatic selection
	Sink string `yaml:"sink"`
	// Watch reloads definitions when files in Folder change
	Watch bool `yaml:"watch"`
	// DebounceDelay is how long to collect changes before a reload
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = no NATS)
	URL string `yaml:"url"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Address is the listen address of /metrics (empty = disabled)
	Address string `yaml:"address"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Conversion: convert.DefaultConfiguration(),
		Index: IndexConfig{
			Folder:        "indexes",
			Sink:          SinkAuto,
			DebounceDelay: 500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.Conversion.Validate(); err != nil {
		return fmt.Errorf("conversion: %w", err)
	}
	switch c.Index.Sink {
	case SinkAuto, SinkMemory, SinkKV:
	default:
		return fmt.Errorf("index.sink must be memory or kv, got %q", c.Index.Sink)
	}
	if c.Index.Sink == SinkKV && c.NATS.URL == "" {
		return fmt.Errorf("index.sink kv requires nats.url")
	}
	if c.Index.DebounceDelay < 0 {
		return fmt.Errorf("index.debounce_delay must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// UseKV reports whether indexing runs write to NATS KV.
func (c *Config) UseKV() bool {
	switch c.Index.Sink {
	case SinkKV:
		return true
	case SinkMemory:
		return false
	default:
		return c.NATS.URL != ""
	}
}

// ParseLogLevel converts a level name into a slog.Level. The empty name is
// info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Conversion
	if other.Conversion.JSONRootType != "" {
		c.Conversion.JSONRootType = other.Conversion.JSONRootType
	}
	if other.Conversion.JSONType != "" {
		c.Conversion.JSONType = other.Conversion.JSONType
	}
	if other.Conversion.ModelType != "" {
		c.Conversion.ModelType = other.Conversion.ModelType
	}
	if len(other.Conversion.IgnoredProperties) > 0 {
		c.Conversion.IgnoredProperties = other.Conversion.IgnoredProperties
	}
	if other.Conversion.InverseAttributes {
		c.Conversion.InverseAttributes = true
	}
	if other.Conversion.LogIssues {
		c.Conversion.LogIssues = true
	}
	if other.Conversion.DanglingReferences != "" {
		c.Conversion.DanglingReferences = other.Conversion.DanglingReferences
	}

	// Profile
	if other.Profile != "" {
		c.Profile = other.Profile
	}

	// Index
	if other.Index.Folder != "" {
		c.Index.Folder = other.Index.Folder
	}
	if other.Index.Sink != "" {
		c.Index.Sink = other.Index.Sink
	}
	if other.Index.Watch {
		c.Index.Watch = true
	}
	if other.Index.DebounceDelay != 0 {
		c.Index.DebounceDelay = other.Index.DebounceDelay
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Metrics
	if other.Metrics.Address != "" {
		c.Metrics.Address = other.Metrics.Address
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
