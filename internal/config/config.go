package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ncertrag/internal/assembler"
	"ncertrag/internal/boundary"
	"ncertrag/internal/metadata"
	"ncertrag/internal/quality"
	"ncertrag/internal/relevance"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
}

// GeminiEmbedderConfig holds configuration for the Gemini embedder.
type GeminiEmbedderConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Gemini *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
}

// CacheConfig selects the embedding cache. Type is "none", "memory" or "redis".
type CacheConfig struct {
	Type   string       `yaml:"type"`
	Prefix string       `yaml:"prefix"`
	Redis  *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig contains connection details for the redis embedding cache.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	TTLSecs     int    `yaml:"ttl_secs"`
}

// ChunkerConfig configures how documents are split into chunks.
// Type "holistic" is the learning-unit pipeline; "sentence" is the fixed-window baseline.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
	// Workers bounds how many sections of one document are chunked concurrently.
	Workers int `yaml:"workers"`
}

// HintsConfig selects the optional AI hint provider. Provider is "none", "claude" or "gemini".
type HintsConfig struct {
	Provider      string  `yaml:"provider"`
	Model         string  `yaml:"model"`
	APIKeyEnv     string  `yaml:"api_key_env"`
	TimeoutSecs   int     `yaml:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	MaxInput      int     `yaml:"max_input"`
	// TripAfter consecutive failures pause the provider for CooldownSecs; negative disables the breaker.
	TripAfter    int `yaml:"trip_after"`
	CooldownSecs int `yaml:"cooldown_secs"`
	// Boundaries enables AI boundary proposals; concept hints are used whenever a provider is set.
	Boundaries bool `yaml:"boundaries"`
}

// PatternsConfig lists extra pattern libraries merged over the built-in NCERT set.
type PatternsConfig struct {
	Files []string `yaml:"files,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects the chunk record store. Type is "memory", "sqlite" or "badger".
type StoreConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// RelevanceConfig holds the ranking weights and result count.
type RelevanceConfig struct {
	Weights relevance.Weights `yaml:"weights"`
	TopK    int               `yaml:"top_k"`
}

// LoggingConfig selects zap's production (JSON) or development (console) output.
type LoggingConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// MetricsConfig sets where /metrics is served. Empty disables the endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultsConfig fills document attributes the files do not carry.
type DefaultsConfig struct {
	GradeLevel int    `yaml:"grade_level"`
	Subject    string `yaml:"subject"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Cache       CacheConfig       `yaml:"cache"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Patterns    PatternsConfig    `yaml:"patterns"`
	Boundary    boundary.Config   `yaml:"boundary"`
	Assembler   assembler.Config  `yaml:"assembler"`
	Metadata    metadata.Config   `yaml:"metadata"`
	Quality     quality.Config    `yaml:"quality"`
	Relevance   RelevanceConfig   `yaml:"relevance"`
	Hints       HintsConfig       `yaml:"hints"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Store       StoreConfig       `yaml:"store"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Defaults    DefaultsConfig    `yaml:"defaults"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ncertrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/ncertrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ncertrag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig { return defaultConfig() }

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "tfidf"},
		Cache:       CacheConfig{Type: "memory"},
		Chunker:     ChunkerConfig{Type: "holistic", SentencesPerChunk: 5, OverlapSentences: 1, Workers: 4},
		Boundary:    boundary.DefaultConfig(),
		Assembler:   assembler.DefaultConfig(),
		Metadata:    metadata.DefaultConfig(),
		Quality:     quality.DefaultConfig(),
		Relevance:   RelevanceConfig{Weights: relevance.DefaultWeights(), TopK: 5},
		Hints:       HintsConfig{Provider: "none"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Store:       StoreConfig{Type: "memory"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 5},
		Logging:     LoggingConfig{Mode: "dev", Level: "info"},
		Defaults:    DefaultsConfig{GradeLevel: 9, Subject: "physics"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "holistic"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Chunker.Workers <= 0 {
		cfg.Chunker.Workers = 4
	}
	if cfg.Boundary.Default.Max <= 0 {
		cfg.Boundary = boundary.DefaultConfig()
	}
	if cfg.Relevance.Weights == (relevance.Weights{}) {
		cfg.Relevance.Weights = relevance.DefaultWeights()
	}
	if cfg.Relevance.TopK <= 0 {
		cfg.Relevance.TopK = 5
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.Defaults.GradeLevel == 0 {
		cfg.Defaults.GradeLevel = 9
	}
	if cfg.Defaults.Subject == "" {
		cfg.Defaults.Subject = "physics"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Embedder.Type == "gemini" {
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
		}
		if cfg.Embedder.Gemini.APIKeyEnv == "" {
			cfg.Embedder.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.Embedder.Gemini.Model == "" {
			cfg.Embedder.Gemini.Model = "gemini-embedding-001"
		}
		if cfg.Embedder.Gemini.Dimension == 0 {
			cfg.Embedder.Gemini.Dimension = 768
		}
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "none"
	}
	if cfg.Cache.Type == "redis" {
		if cfg.Cache.Redis == nil {
			cfg.Cache.Redis = &RedisConfig{}
		}
		if cfg.Cache.Redis.Addr == "" {
			cfg.Cache.Redis.Addr = "localhost:6379"
		}
		if cfg.Cache.Redis.TTLSecs == 0 {
			cfg.Cache.Redis.TTLSecs = 7 * 24 * 3600
		}
	}
	if cfg.Hints.Provider == "" {
		cfg.Hints.Provider = "none"
	}
	if cfg.Hints.APIKeyEnv == "" {
		switch cfg.Hints.Provider {
		case "claude":
			cfg.Hints.APIKeyEnv = "ANTHROPIC_API_KEY"
		case "gemini":
			cfg.Hints.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if cfg.Hints.TimeoutSecs == 0 {
		cfg.Hints.TimeoutSecs = 20
	}
	if cfg.Hints.TripAfter == 0 {
		cfg.Hints.TripAfter = 5
	}
	if cfg.Hints.CooldownSecs == 0 {
		cfg.Hints.CooldownSecs = 30
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Type {
		case "sqlite":
			cfg.Store.Path = filepath.Join(dataDir(), "chunks.db")
		case "badger":
			cfg.Store.Path = filepath.Join(dataDir(), "badger")
		}
	}
	if cfg.Logging.Mode == "" {
		cfg.Logging.Mode = "dev"
	}
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ncertrag"
	}
	return filepath.Join(home, ".local", "share", "ncertrag")
}

// HintTimeout is the per-call limit for AI hint requests.
func (c HintsConfig) HintTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TTL is the lifetime of cached embeddings. Zero keeps them forever.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}
