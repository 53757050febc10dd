// Package cli holds the configuration loading and editor wiring shared by
// the draftbench commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the draftbench.yaml file layout.
type Config struct {
	History  HistoryConfig  `yaml:"history"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Store    StoreConfig    `yaml:"store"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HistoryConfig tunes the undo/redo stacks.
type HistoryConfig struct {
	MaxSize       int `yaml:"maxSize"`
	MergeWindowMS int `yaml:"mergeWindowMs"`
}

// AutosaveConfig tunes the debounced persistence.
type AutosaveConfig struct {
	DebounceMS   int `yaml:"debounceMs"`
	Retries      int `yaml:"retries"`
	MaxPersisted int `yaml:"maxPersisted"`
}

// StoreConfig selects and configures the durable backend.
type StoreConfig struct {
	// Backend is one of: memory, file, redis, badger.
	Backend string `yaml:"backend"`

	// DataDir is the base directory for the file and badger backends.
	DataDir string `yaml:"dataDir"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuditConfig tunes the audit trail.
type AuditConfig struct {
	MaxEntries int `yaml:"maxEntries"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches from text to JSON output.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		History:  HistoryConfig{MaxSize: 100, MergeWindowMS: 1000},
		Autosave: AutosaveConfig{DebounceMS: 500, Retries: 2, MaxPersisted: 50},
		Store:    StoreConfig{Backend: "file", DataDir: ".draftbench"},
		Audit:    AuditConfig{MaxEntries: 1000},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults. A
// missing file at the default path is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis", "badger":
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file, redis, or badger)", c.Store.Backend)
	}
	if c.History.MaxSize <= 0 {
		return fmt.Errorf("history.maxSize must be positive, got %d", c.History.MaxSize)
	}
	return nil
}

// MergeWindow returns the merge window as a duration.
func (c HistoryConfig) MergeWindow() time.Duration {
	return time.Duration(c.MergeWindowMS) * time.Millisecond
}

// Debounce returns the autosave debounce as a duration.
func (c AutosaveConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
