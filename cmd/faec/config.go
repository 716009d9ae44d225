package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// ServeConfig controls the "faec serve" subcommand. It is loaded from a
// JSON file, created with defaults on first run — the same pattern the
// teacher uses for its own server config.
type ServeConfig struct {
	Addr               string `json:"addr"`
	Recursive          bool   `json:"recursive"`
	IgnoreBadTemplates bool   `json:"ignore_bad_templates"`
	EnableCache        bool   `json:"enable_cache"`
	StatsDatabasePath  string `json:"stats_database_path"`
	EnableStats        bool   `json:"enable_stats"`
	LogLevel           string `json:"log_level"`
}

// DefaultServeConfig returns a ServeConfig with safe default values.
func DefaultServeConfig() *ServeConfig {
	return &ServeConfig{
		Addr:               ":8080",
		Recursive:          true,
		IgnoreBadTemplates: true,
		EnableCache:        true,
		StatsDatabasePath:  "./faec-stats.db?_journal_mode=WAL&_busy_timeout=5000",
		EnableStats:        false,
		LogLevel:           "info",
	}
}

// LoadServeConfig reads config from path, creating it with defaults if it
// doesn't exist yet.
func LoadServeConfig(path string) (*ServeConfig, error) {
	cfg := DefaultServeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			out, marshalErr := json.MarshalIndent(cfg, "", "  ")
			if marshalErr != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", marshalErr)
			}
			if writeErr := atomic.WriteFile(path, bytes.NewReader(out)); writeErr != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", writeErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
