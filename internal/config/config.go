// Package config loads and validates appledocs-mcp configuration.
//
// Precedence, lowest to highest: built-in defaults, the YAML config file
// (~/.appledocs-mcp/config.yaml), APPLEDOCS_MCP_* environment variables,
// and command-line flags applied by the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete appledocs-mcp configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Paths   PathsConfig  `yaml:"paths" json:"paths"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Sync    SyncConfig   `yaml:"sync" json:"sync"`
	Server  ServerConfig `yaml:"server" json:"server"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	// DataDir is the root data directory (default ~/.appledocs-mcp).
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// IndexFile is the SQLite index path. Empty means DataDir/index.db.
	IndexFile string `yaml:"index_file" json:"index_file"`
	// SyncStateFile is the resumable sync checkpoint path.
	// Empty means DataDir/sync-state.json.
	SyncStateFile string `yaml:"sync_state_file" json:"sync_state_file"`
}

// SearchConfig configures search behavior.
type SearchConfig struct {
	// DefaultLimit is the result count when the caller doesn't specify one.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// MaxLimit is the hard ceiling on result count.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
	// SummaryBudget is the character budget for derived summaries.
	SummaryBudget int `yaml:"summary_budget" json:"summary_budget"`
	// ContentCacheSize is the LRU entry count for document content reads.
	ContentCacheSize int `yaml:"content_cache_size" json:"content_cache_size"`
}

// SyncConfig configures the remote sync engine.
type SyncConfig struct {
	// BaseURL is the remote content source root.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Concurrency is the bounded fetch pool size per framework.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
	// FetchTimeout bounds a single file fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	// RequestsPerSecond rate-limits outbound fetches.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	// MaxRetries bounds retry attempts for transient fetch errors.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Search: SearchConfig{
			DefaultLimit:     10,
			MaxLimit:         50,
			SummaryBudget:    1500,
			ContentCacheSize: 256,
		},
		Sync: SyncConfig{
			BaseURL:           "https://developer.apple.com",
			Concurrency:       50,
			FetchTimeout:      750 * time.Millisecond,
			RequestsPerSecond: 100,
			MaxRetries:        3,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// Load reads the config file if present, applies environment overrides,
// and validates the result. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := NewConfig()

	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigPath returns the YAML config file path.
func ConfigPath() string {
	if p := os.Getenv("APPLEDOCS_MCP_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// IndexPath returns the resolved SQLite index path.
func (c *Config) IndexPath() string {
	if c.Paths.IndexFile != "" {
		return c.Paths.IndexFile
	}
	return filepath.Join(c.Paths.DataDir, "index.db")
}

// SyncStatePath returns the resolved sync checkpoint path.
func (c *Config) SyncStatePath() string {
	if c.Paths.SyncStateFile != "" {
		return c.Paths.SyncStateFile
	}
	return filepath.Join(c.Paths.DataDir, "sync-state.json")
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit %d below default_limit %d", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.SummaryBudget < 100 {
		return fmt.Errorf("search.summary_budget too small: %d", c.Search.SummaryBudget)
	}
	if c.Sync.Concurrency <= 0 {
		return fmt.Errorf("sync.concurrency must be positive, got %d", c.Sync.Concurrency)
	}
	if c.Sync.FetchTimeout <= 0 {
		return fmt.Errorf("sync.fetch_timeout must be positive, got %s", c.Sync.FetchTimeout)
	}
	if c.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync.max_retries must not be negative, got %d", c.Sync.MaxRetries)
	}
	return nil
}

// applyEnv overrides config values from APPLEDOCS_MCP_* variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("APPLEDOCS_MCP_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("APPLEDOCS_MCP_INDEX_FILE"); v != "" {
		c.Paths.IndexFile = v
	}
	if v := os.Getenv("APPLEDOCS_MCP_SYNC_STATE_FILE"); v != "" {
		c.Paths.SyncStateFile = v
	}
	if v := os.Getenv("APPLEDOCS_MCP_BASE_URL"); v != "" {
		c.Sync.BaseURL = v
	}
	if v := os.Getenv("APPLEDOCS_MCP_SYNC_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sync.Concurrency = n
		}
	}
	if v := os.Getenv("APPLEDOCS_MCP_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sync.FetchTimeout = d
		}
	}
	if v := os.Getenv("APPLEDOCS_MCP_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Save writes the config to its YAML file, creating the data dir if needed.
func (c *Config) Save() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".appledocs-mcp")
	}
	return filepath.Join(home, ".appledocs-mcp")
}
