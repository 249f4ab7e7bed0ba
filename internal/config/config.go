// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers a file and env on top.
// - Validate reports every problem wrapped with ErrInvalidConfig.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Result store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text (slog) or json (zap) output.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory card queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of classification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MinAcceptableWeight is the peak load below which a card is a flowing well.
	MinAcceptableWeight float64 `koanf:"min_acceptable_weight"`

	// Store selects the result backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used by the sqlite store.
	SQLitePath string `koanf:"sqlite_path"`

	// MaxResults caps the memory store; older results are evicted first.
	MaxResults int `koanf:"max_results"`

	// MaxHistoryLimit caps GET /wells/{well_id}/cards?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          50_000,
		MinAcceptableWeight: 10,
		Store:               StoreMemory,
		SQLitePath:          "dynacard.db",
		MaxResults:          100_000,
		MaxHistoryLimit:     500,
	}
}

// Validate checks the values the service cannot fall back from.
// Non-positive sizes and counts are left to the service defaults.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if c.MinAcceptableWeight < 0 {
		errs = append(errs, fmt.Errorf("min_acceptable_weight %g must not be negative", c.MinAcceptableWeight))
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("sqlite_path must not be empty for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store %q must be memory or sqlite", c.Store))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
