package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the framesearch tool.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IngestConfig holds frame sampling and batch ingestion configuration.
type IngestConfig struct {
	Interval int      `yaml:"interval"` // embed every Nth decoded frame
	Includes []string `yaml:"includes"` // globs matched when ingesting a directory
	Excludes []string `yaml:"excludes"`
}

// SearchConfig holds query configuration.
type SearchConfig struct {
	TopK            int  `yaml:"top_k"`
	CacheSize       int  `yaml:"cache_size"`
	CacheTTLSeconds int  `yaml:"cache_ttl_seconds"`
	CacheEnabled    bool `yaml:"cache_enabled"`
}

// CacheTTL returns the cache TTL as a duration.
func (c SearchConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// EmbeddingConfig holds embedding producer configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "jina", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g. "jina-clip-v2"
	APIKeyEnv string `yaml:"api_key_env"` // environment variable for the API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"` // only used by the mock provider
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Interval: 30,
			Includes: []string{"**/*.mp4", "**/*.mov", "**/*.mkv", "**/*.avi", "**/*.webm"},
			Excludes: []string{"**/.*/**"},
		},
		Search: SearchConfig{
			TopK:            5,
			CacheSize:       100,
			CacheTTLSeconds: 300,
			CacheEnabled:    true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "jina",
			Model:     "jina-clip-v2",
			APIKeyEnv: "JINA_API_KEY",
			BaseURL:   "https://api.jina.ai/v1",
			Dimension: 512,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for framesearch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "framesearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".framesearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the embedding database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".framesearch", "index.db")
}

// EnsureDataDir ensures the .framesearch directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".framesearch"), 0755)
}
