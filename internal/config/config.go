// Package config provides configuration management for transcript-dedup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Defaults for the worker and the clustering pipeline.
const (
	DefaultWorkerPort     = 37800
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultEmbeddingDim   = 768
	DefaultBatchSize      = 50
	DefaultMaxBatchLines  = 500
)

// Config holds all runtime settings.
type Config struct {
	WorkerPort int    `yaml:"worker_port"`
	DBPath     string `yaml:"db_path"`
	MaxConns   int    `yaml:"max_conns"`

	OllamaURL      string `yaml:"ollama_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingDim   int    `yaml:"embedding_dim"`
	BatchSize      int    `yaml:"batch_size"`

	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinClusterSize      int     `yaml:"min_cluster_size"`
	MinLineWords        int     `yaml:"min_line_words"`
	MaxLineWords        int     `yaml:"max_line_words"`
	AllowCrossSpeaker   bool    `yaml:"allow_cross_speaker"`

	// MaxBatchLines caps unique lines per clustering call. The pairwise
	// matrix is O(n²); batches beyond the cap are truncated with a warning.
	MaxBatchLines int `yaml:"max_batch_lines"`
}

var (
	cached   *Config
	cachedMu sync.Mutex
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WorkerPort:          DefaultWorkerPort,
		DBPath:              filepath.Join(DataDir(), "transcript-dedup.db"),
		MaxConns:            4,
		OllamaURL:           DefaultOllamaURL,
		EmbeddingModel:      DefaultEmbeddingModel,
		EmbeddingDim:        DefaultEmbeddingDim,
		BatchSize:           DefaultBatchSize,
		SimilarityThreshold: 0.85,
		MinClusterSize:      2,
		MinLineWords:        3,
		MaxLineWords:        100,
		AllowCrossSpeaker:   true,
		MaxBatchLines:       DefaultMaxBatchLines,
	}
}

// DataDir returns the data directory path (~/.transcript-dedup).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".transcript-dedup")
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// EnsureAll creates the data directory and a default settings file when
// either is missing.
func EnsureAll() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(SettingsPath()); os.IsNotExist(err) {
		if err := Save(Default()); err != nil {
			return fmt.Errorf("write default settings: %w", err)
		}
	}
	return nil
}

// Load reads the settings file, fills unset fields from defaults, and
// applies environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes the configuration to the settings file.
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return os.WriteFile(SettingsPath(), data, 0o644)
}

// Get returns the cached configuration, loading it on first use. A load
// failure falls back to defaults.
func Get() *Config {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	if cached == nil {
		cfg, err := Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load settings, using defaults")
			cfg = Default()
		}
		cached = cfg
	}
	return cached
}

// Reset clears the cached configuration so the next Get reloads it.
func Reset() {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	cached = nil
}

// applyEnv overrides settings from TRANSCRIPT_DEDUP_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TRANSCRIPT_DEDUP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.WorkerPort = port
		}
	}
	if v := os.Getenv("TRANSCRIPT_DEDUP_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TRANSCRIPT_DEDUP_OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := os.Getenv("TRANSCRIPT_DEDUP_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("TRANSCRIPT_DEDUP_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("TRANSCRIPT_DEDUP_MIN_CLUSTER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinClusterSize = n
		}
	}
}
