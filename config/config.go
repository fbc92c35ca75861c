package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for careerpath.
type Config struct {
	Graph     GraphConfig     `yaml:"graph"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Match     MatchConfig     `yaml:"match"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphConfig selects and connects the relationship graph store.
type GraphConfig struct {
	Backend     string `yaml:"backend"` // "bolt", "neo4j", "postgres"
	Path        string `yaml:"path"`    // bolt file, relative to the data dir
	URI         string `yaml:"uri"`     // neo4j
	URIEnv      string `yaml:"uri_env"`
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
	Database    string `yaml:"database"`
	DSNEnv      string `yaml:"dsn_env"` // postgres
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "hash", "ollama", "openai", "jina"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig holds the skill-extraction model configuration.
type LLMConfig struct {
	Provider  string        `yaml:"provider"` // "groq", "openai", "gemini"
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// IngestConfig holds bulk import configuration.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// MatchConfig holds ranking configuration.
type MatchConfig struct {
	RecommendTopK int `yaml:"recommend_top_k"`
	SearchTopK    int `yaml:"search_top_k"`
}

// CacheConfig holds recommendation cache configuration.
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // "memory", "redis", "none"
	MaxSize   int           `yaml:"max_size"`
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
	// Redis password is read from this environment variable.
	RedisPasswordEnv string `yaml:"redis_password_env"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int    `yaml:"max_upload_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			Backend:     "bolt",
			Path:        "graph.db",
			URIEnv:      "DB_URL",
			Username:    "neo4j",
			PasswordEnv: "DB_PASSWORD",
			DSNEnv:      "DATABASE_URL",
		},
		Index: IndexConfig{
			Path: "index.db",
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "hash-384",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 100,
		},
		LLM: LLMConfig{
			Provider:  "groq",
			Model:     "qwen/qwen3-32b",
			APIKeyEnv: "GROQ_API_KEY",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Ingest: IngestConfig{
			BatchSize: 500,
		},
		Match: MatchConfig{
			RecommendTopK: 5,
			SearchTopK:    3,
		},
		Cache: CacheConfig{
			Backend:          "memory",
			MaxSize:          256,
			TTL:              10 * time.Minute,
			RedisAddr:        "localhost:6379",
			RedisPasswordEnv: "REDIS_PASSWORD",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
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

// LoadFromDir loads configuration from a directory (looks for careerpath.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "careerpath.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(DataDir(dir), "config.yaml")
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

// DataDir returns the directory holding local stores.
func DataDir(dir string) string {
	return filepath.Join(dir, ".careerpath")
}

// ResolvePath makes a store path absolute relative to the data directory.
func ResolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(DataDir(dir), path)
}

// EnsureDataDir ensures the .careerpath directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}

// Secret reads the environment variable named by key, trimmed.
func Secret(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(key))
}
