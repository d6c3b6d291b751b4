// Package config provides configuration loading for problemsolver.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file, then
// PROBLEMSOLVER_* environment variables. The logging and telemetry sections are
// owned by their packages and decoded through Loader.Section.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	Knowledge KnowledgeConfig `koanf:"knowledge"`
	Solver    SolverConfig    `koanf:"solver"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

// StorageConfig selects where sessions, feedback and adaptive patterns live.
type StorageConfig struct {
	Backend        string   `koanf:"backend"` // memory or badger
	Path           string   `koanf:"path"`
	SyncWrites     bool     `koanf:"sync_writes"`
	SessionTTL     Duration `koanf:"session_ttl"` // 0 keeps sessions forever
	GCInterval     Duration `koanf:"gc_interval"`
	GCDiscardRatio float64  `koanf:"gc_discard_ratio"`
}

// KnowledgeConfig configures the builtin knowledge store.
type KnowledgeConfig struct {
	Path       string `koanf:"path"` // empty keeps the collection in memory
	Compress   bool   `koanf:"compress"`
	Dimensions int    `koanf:"dimensions"`
	SeedFile   string `koanf:"seed_file"`
}

// SolverConfig tunes matching and generation.
type SolverConfig struct {
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	MaxMatches          int     `koanf:"max_matches"`
	MaxSolutions        int     `koanf:"max_solutions"`
}

// CatalogConfig points at an optional YAML catalog override.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:        BackendMemory,
			Path:           filepath.Join(dataDir(), "sessions"),
			SessionTTL:     Duration(0),
			GCInterval:     Duration(10 * time.Minute),
			GCDiscardRatio: 0.5,
		},
		Knowledge: KnowledgeConfig{
			Compress:   true,
			Dimensions: 256,
		},
		Solver: SolverConfig{
			SimilarityThreshold: 0.7,
			MaxMatches:          10,
			MaxSolutions:        8,
		},
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - the storage backend is unknown, or badger has no path
//   - the similarity threshold is outside (0, 1]
//   - a match or solution cap is outside its allowed range
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q (must be %s or %s)", c.Storage.Backend, BackendMemory, BackendBadger)
	}
	if c.Storage.GCDiscardRatio < 0 || c.Storage.GCDiscardRatio >= 1 {
		return fmt.Errorf("invalid storage.gc_discard_ratio: %v (must be in [0, 1))", c.Storage.GCDiscardRatio)
	}

	if c.Solver.SimilarityThreshold <= 0 || c.Solver.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid solver.similarity_threshold: %v (must be in (0, 1])", c.Solver.SimilarityThreshold)
	}
	if c.Solver.MaxMatches < 1 || c.Solver.MaxMatches > 10 {
		return fmt.Errorf("invalid solver.max_matches: %d (must be 1-10)", c.Solver.MaxMatches)
	}
	if c.Solver.MaxSolutions < 1 || c.Solver.MaxSolutions > 8 {
		return fmt.Errorf("invalid solver.max_solutions: %d (must be 1-8)", c.Solver.MaxSolutions)
	}

	if c.Knowledge.Dimensions < 0 {
		return fmt.Errorf("invalid knowledge.dimensions: %d", c.Knowledge.Dimensions)
	}
	return nil
}

// dataDir is where persistent stores default to.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".problemsolver"
	}
	return filepath.Join(home, ".local", "share", "problemsolver")
}
