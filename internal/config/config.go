package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      int              `json:"port" yaml:"port"`
	LogConfig logger.LogConfig `json:"log_config" yaml:"log_config"`
	Database  DatabaseConfig   `json:"database" yaml:"database"`
	Mail      MailConfig       `json:"mail" yaml:"mail"`
	AI        AIConfig         `json:"ai" yaml:"ai"`
	RAG       RAGConfig        `json:"rag" yaml:"rag"`
	Chat      ChatConfig       `json:"chat" yaml:"chat"`
	Session   SessionConfig    `json:"session" yaml:"session"`
	FileStore FileStoreConfig  `json:"file_store" yaml:"file_store"`
	PDF       PDFConfig        `json:"pdf" yaml:"pdf"`
	Jobs      JobsConfig       `json:"jobs" yaml:"jobs"`
}

// DatabaseConfig is optional. Without a dsn or host bookings are not
// persisted and the embedding cache stays in memory.
type DatabaseConfig struct {
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"dbname" yaml:"dbname"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`
}

func (c DatabaseConfig) Enabled() bool {
	return c.DSN != "" || c.Host != ""
}

type MailConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
	UseTLS   bool   `json:"use_tls" yaml:"use_tls"`
}

func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type ProviderConfig struct {
	Provider string      `json:"provider" yaml:"provider"`
	Model    string      `json:"model" yaml:"model"`
	Data     interface{} `json:"data" yaml:"data"`
}

type GenerationConfig struct {
	ProviderConfig `yaml:",inline"`
	FallbackModels []string `json:"fallback_models" yaml:"fallback_models"`
	Discover       bool     `json:"discover" yaml:"discover"`
	// Backups are tried after every model of the primary provider failed.
	Backups []BackupConfig `json:"backups" yaml:"backups"`
}

type BackupConfig struct {
	Provider string      `json:"provider" yaml:"provider"`
	Models   []string    `json:"models" yaml:"models"`
	Data     interface{} `json:"data" yaml:"data"`
}

type EmbedCacheConfig struct {
	LRUSize    int  `json:"lru_size" yaml:"lru_size"`
	TTLSeconds int  `json:"ttl_seconds" yaml:"ttl_seconds"`
	DB         bool `json:"db" yaml:"db"`
}

type AIConfig struct {
	Generation     GenerationConfig `json:"generation" yaml:"generation"`
	Embedding      ProviderConfig   `json:"embedding" yaml:"embedding"`
	LocalEmbedding ProviderConfig   `json:"local_embedding" yaml:"local_embedding"`
	Timeout        int              `json:"timeout" yaml:"timeout"`
	EmbedCache     EmbedCacheConfig `json:"embed_cache" yaml:"embed_cache"`
}

type RAGConfig struct {
	ChunkSize    int    `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap" yaml:"chunk_overlap"`
	TopK         int    `json:"top_k" yaml:"top_k"`
	WatchDir     string `json:"watch_dir" yaml:"watch_dir"`
	MaxUploadMB  int    `json:"max_upload_mb" yaml:"max_upload_mb"`
}

type ChatConfig struct {
	HistoryLimit    int `json:"history_limit" yaml:"history_limit"`
	ContextMessages int `json:"context_messages" yaml:"context_messages"`
	RateLimitMS     int `json:"rate_limit_ms" yaml:"rate_limit_ms"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type SessionConfig struct {
	Type     string      `json:"type" yaml:"type"`
	TTLHours int         `json:"ttl_hours" yaml:"ttl_hours"`
	Redis    RedisConfig `json:"redis" yaml:"redis"`
}

// FileStoreConfig archives uploaded documents. An empty type disables it.
type FileStoreConfig struct {
	Type string      `json:"type" yaml:"type"`
	Data interface{} `json:"data" yaml:"data"`
}

type PDFConfig struct {
	LicenseKey string `json:"license_key" yaml:"license_key"`
}

type JobsConfig struct {
	EmbeddingCacheCleanup    string `json:"embedding_cache_cleanup" yaml:"embedding_cache_cleanup"`
	EmbeddingCacheMaxAgeDays int    `json:"embedding_cache_max_age_days" yaml:"embedding_cache_max_age_days"`
	SessionCleanup           string `json:"session_cleanup" yaml:"session_cleanup"`
}

// Load reads path as JSON, or YAML for .yaml/.yml files. A .env file next to
// the config, or in the working directory, is loaded into the environment
// first without overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var cfg Config
	// explicit tracks optional ints whose zero value is meaningful.
	var explicit struct {
		RAG struct {
			ChunkOverlap *int `json:"chunk_overlap" yaml:"chunk_overlap"`
		} `json:"rag" yaml:"rag"`
	}
	decode := json.Unmarshal
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		decode = yaml.Unmarshal
	}
	if err := decode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := decode(raw, &explicit); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if explicit.RAG.ChunkOverlap == nil {
		cfg.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(paths ...string) error {
	seen := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// DefaultChunkOverlap applies only when rag.chunk_overlap is absent, so an
// explicit 0 disables overlap.
const DefaultChunkOverlap = 128

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.AI.Generation.Provider == "" {
		cfg.AI.Generation.Provider = "gemini"
	}
	if cfg.AI.Generation.Model == "" && cfg.AI.Generation.Provider == "gemini" {
		cfg.AI.Generation.Model = "gemini-2.0-flash"
	}
	if cfg.AI.Embedding.Provider == "" {
		cfg.AI.Embedding.Provider = "gemini"
	}
	if cfg.AI.Embedding.Model == "" && cfg.AI.Embedding.Provider == "gemini" {
		cfg.AI.Embedding.Model = "text-embedding-004"
	}
	if cfg.AI.LocalEmbedding.Provider == "" {
		cfg.AI.LocalEmbedding.Provider = "hashing"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.EmbedCache.LRUSize == 0 {
		cfg.AI.EmbedCache.LRUSize = 1024
	}
	if cfg.AI.EmbedCache.TTLSeconds == 0 {
		cfg.AI.EmbedCache.TTLSeconds = 3600
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 512
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.MaxUploadMB == 0 {
		cfg.RAG.MaxUploadMB = 20
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 25
	}
	if cfg.Chat.ContextMessages == 0 {
		cfg.Chat.ContextMessages = 10
	}
	if cfg.Session.Type == "" {
		cfg.Session.Type = "memory"
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Jobs.EmbeddingCacheMaxAgeDays == 0 {
		cfg.Jobs.EmbeddingCacheMaxAgeDays = 30
	}
	if cfg.Jobs.EmbeddingCacheCleanup == "" {
		cfg.Jobs.EmbeddingCacheCleanup = "0 3 * * *"
	}
	if cfg.Jobs.SessionCleanup == "" {
		cfg.Jobs.SessionCleanup = "*/10 * * * *"
	}
}

func validate(cfg *Config) error {
	if cfg.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive")
	}
	if cfg.RAG.ChunkOverlap < 0 || cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size)")
	}
	if cfg.RAG.TopK < 0 {
		return fmt.Errorf("rag.top_k must not be negative")
	}
	switch cfg.Session.Type {
	case "memory":
	case "redis":
		if cfg.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for redis sessions")
		}
	default:
		return fmt.Errorf("session.type must be memory or redis")
	}
	switch cfg.FileStore.Type {
	case "", "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	return nil
}
