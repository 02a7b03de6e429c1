// Package config provides configuration loading and structs for modelindex.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/modelindex/internal/ranking"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the project directory when none is given.
const DefaultFileName = "modelindex.yaml"

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Project ProjectConfig `yaml:"project"`
	Indexer IndexerConfig `yaml:"indexer"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the snapshot database and the keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// ProjectConfig describes which files make up the project.
type ProjectConfig struct {
	Root string `yaml:"root"`
	// Extensions restricts indexing to these extensions. Empty means every
	// extension a processor is registered for.
	Extensions  []string `yaml:"extensions"`
	Ignore      []string `yaml:"ignore"`
	Recursive   *bool    `yaml:"recursive"`
	Watch       bool     `yaml:"watch"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// RecursiveOrDefault returns whether to walk the project recursively; defaults to true when unset.
func (p *ProjectConfig) RecursiveOrDefault() bool {
	if p.Recursive != nil {
		return *p.Recursive
	}
	return true
}

// IndexerConfig holds indexing pass settings.
type IndexerConfig struct {
	// Workers bounds concurrent processing; 0 means one per CPU.
	Workers   int `yaml:"workers"`
	CacheSize int `yaml:"cache_size"`
}

// SearchConfig holds keyword search settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// TopKCandidates is how many keyword hits are re-ranked before the limit applies.
	TopKCandidates int `yaml:"top_k_candidates"`
	// AutoFuzzy retries a search with fuzzy matching when it found nothing.
	AutoFuzzy *bool          `yaml:"auto_fuzzy"`
	Ranking   ranking.Config `yaml:"ranking"`
}

// AutoFuzzyOrDefault returns whether empty searches are retried fuzzily; defaults to true when unset.
func (s *SearchConfig) AutoFuzzyOrDefault() bool {
	if s.AutoFuzzy != nil {
		return *s.AutoFuzzy
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// "./" paths resolve against the config file's directory, which must be
	// absolute for file identities to match discovered files.
	configDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	ApplyDefaults(&cfg)
	cfg.expandPaths(configDir)
	return &cfg, nil
}

// Default returns the configuration used when no config file exists, with
// relative defaults resolved against dir.
func Default(dir string) *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.expandPaths(dir)
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) expandPaths(configDir string) {
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath, configDir)
	c.Storage.BleveIndexPath = expandPath(c.Storage.BleveIndexPath, configDir)
	c.Project.Root = expandPath(c.Project.Root, configDir)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
