// Package config provides configuration loading for repoviewd.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/repoviewd/internal/logging"
	"github.com/fyrsmithlabs/repoviewd/internal/sandbox"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// envPrefix namespaces environment overrides: REPOVIEWD_SERVER_PORT,
	// REPOVIEWD_REPO_ROOT, REPOVIEWD_LOGGING_LEVEL, ...
	envPrefix = "REPOVIEWD_"
)

// Config is the complete repoviewd configuration. It is loaded once at
// startup and treated as immutable afterwards; there is no reload path.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Repo    RepoConfig     `koanf:"repo"`
	Logging logging.Config `koanf:"logging"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	// Port for the HTTP listener.
	Port int `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// AuthToken, when set, requires a matching bearer token on /mcp.
	// Health and metrics stay unauthenticated.
	AuthToken Secret `koanf:"auth_token"`
}

// RepoConfig configures the sandboxed repository view.
type RepoConfig struct {
	// Root is the absolute path of the repository directory to expose.
	Root string `koanf:"root"`

	// MaxFileSize is the per-file byte cap for reads and search candidates.
	MaxFileSize int64 `koanf:"max_file_size"`

	// MaxTreeEntries caps tree listing results.
	MaxTreeEntries int `koanf:"max_tree_entries"`

	// DefaultSearchGlob applies when a search call omits the glob.
	DefaultSearchGlob string `koanf:"default_search_glob"`

	// DenyGlobs extend the built-in deny glob patterns.
	DenyGlobs []string `koanf:"deny_globs"`

	// DenyFilePatterns extend the built-in filename regular expressions
	// matched against base names.
	DenyFilePatterns []string `koanf:"deny_file_patterns"`

	// IgnoreFiles are gitignore-style files read from the root at startup;
	// their entries extend the deny policy.
	IgnoreFiles []string `koanf:"ignore_files"`
}

// Load reads configuration from an optional YAML file and the environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (REPOVIEWD_SERVER_PORT, REPOVIEWD_REPO_ROOT, ...)
//  2. YAML config file
//  3. Defaults
//
// The file is optional; a missing path is not an error. Oversized config
// files are rejected.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadFile(k, configPath); err != nil {
			return nil, err
		}
	}

	// Environment overrides: REPOVIEWD_SECTION_FIELD -> section.field.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// loadFile loads a YAML config file into k. Missing files are ignored.
func loadFile(k *koanf.Koanf, configPath string) error {
	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Stat the open descriptor rather than the path to avoid a TOCTOU race.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8917
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Repo.MaxFileSize == 0 {
		cfg.Repo.MaxFileSize = sandbox.DefaultMaxFileSize
	}
	if cfg.Repo.MaxTreeEntries == 0 {
		cfg.Repo.MaxTreeEntries = sandbox.DefaultMaxTreeEntries
	}
	if cfg.Repo.DefaultSearchGlob == "" {
		cfg.Repo.DefaultSearchGlob = sandbox.DefaultSearchGlob
	}
	if cfg.Repo.IgnoreFiles == nil {
		cfg.Repo.IgnoreFiles = []string{".gitignore", ".repoviewignore"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "repoviewd"}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Repo.Root == "" {
		return errors.New("repo root is required")
	}
	if !filepath.IsAbs(c.Repo.Root) {
		return fmt.Errorf("repo root must be an absolute path: %s", c.Repo.Root)
	}
	info, err := os.Stat(c.Repo.Root)
	if err != nil {
		return fmt.Errorf("repo root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("repo root must be a directory: %s", c.Repo.Root)
	}

	if c.Repo.MaxFileSize <= 0 {
		return errors.New("max file size must be positive")
	}
	if c.Repo.MaxTreeEntries <= 0 {
		return errors.New("max tree entries must be positive")
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}
