package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PROBLEMSOLVER_"
)

// Loader holds the merged YAML and environment layers.
type Loader struct {
	k *koanf.Koanf
}

// NewLoader reads the YAML file at configPath, when it exists, then overlays
// PROBLEMSOLVER_* environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PROBLEMSOLVER_STORAGE_BACKEND, PROBLEMSOLVER_LOGGING_LEVEL, etc.)
//  2. YAML config file (~/.config/problemsolver/config.yaml)
//  3. Hardcoded defaults
//
// An empty configPath selects the default path.
//
// # Security Considerations
//
// The file must have 0600 or 0400 permissions, be at most 1MB, and live under
// ~/.config/problemsolver/ or /etc/problemsolver/.
//
// # Environment Variable Mapping
//
// The prefix is stripped and the rest splits on the first underscore:
//
//	PROBLEMSOLVER_STORAGE_SESSION_TTL -> storage.session_ttl
//	PROBLEMSOLVER_SOLVER_MAX_SOLUTIONS -> solver.max_solutions
//	PROBLEMSOLVER_TELEMETRY_ENDPOINT -> telemetry.endpoint
func NewLoader(configPath string) (*Loader, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "problemsolver", "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil {
		// Validate the open descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return &Loader{k: k}, nil
}

// envKey maps PROBLEMSOLVER_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// Section decodes one top-level section onto target. Fields absent from every
// layer keep the values target already holds.
func (l *Loader) Section(key string, target interface{}) error {
	if !l.k.Exists(key) {
		return nil
	}
	if err := l.k.Unmarshal(key, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", key, err)
	}
	return nil
}

// Config decodes the application sections onto Default and validates them.
func (l *Loader) Config() (*Config, error) {
	cfg := Default()
	if err := l.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Load is NewLoader followed by Config.
func Load(configPath string) (*Config, error) {
	l, err := NewLoader(configPath)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

// EnsureConfigDir creates ~/.config/problemsolver with 0700 permissions.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "problemsolver")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// validateConfigPath checks if path is in allowed directories.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Resolve symlinks so they cannot escape the allowed directories.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", "problemsolver"),
		"/etc/problemsolver",
	}
	for _, dir := range allowedDirs {
		if strings.HasPrefix(resolvedPath, dir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/problemsolver/ or /etc/problemsolver/")
}

// validateConfigFileProperties checks file permissions and size on an
// already-opened file.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
