package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	ContextModeFull   = "full"
	ContextModeVector = "vector"

	defaultUploadMaxBytes = 10 * 1024 * 1024
)

type Config struct {
	Port           int              `json:"port"`
	JWTSecret      string           `json:"jwt_secret"`
	JWTTTLHours    int              `json:"jwt_ttl_hours"`
	UploadMaxBytes int64            `json:"upload_max_bytes"`
	CORSOrigins    []string         `json:"cors_origins"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Database       DatabaseConfig   `json:"database"`
	FileStore      FileStoreConfig  `json:"file_store"`
	AI             AIConfig         `json:"ai"`
	Chat           ChatConfig       `json:"chat"`
	ListCache      ListCacheConfig  `json:"list_cache"`
	Jobs           JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type EmbedCacheConfig struct {
	LRUSize       int  `json:"lru_size"`
	LRUTTLSeconds int  `json:"lru_ttl_seconds"`
	DB            bool `json:"db"`
}

type AIConfig struct {
	Timeout    int                `json:"timeout"`
	Chat       []AIProviderConfig `json:"chat"`
	Embed      []AIProviderConfig `json:"embed"`
	EmbedCache EmbedCacheConfig   `json:"embed_cache"`
}

type ChatConfig struct {
	ContextMode string `json:"context_mode"`
	TopK        int    `json:"top_k"`
	RateLimitMS int    `json:"rate_limit_ms"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type ListCacheConfig struct {
	Type       string      `json:"type"`
	Size       int         `json:"size"`
	TTLSeconds int         `json:"ttl_seconds"`
	Redis      RedisConfig `json:"redis"`
}

type JobsConfig struct {
	EmbeddingBackfill        string `json:"embedding_backfill"`
	EmbeddingBackfillBatch   int    `json:"embedding_backfill_batch"`
	EmbeddingCacheCleanup    string `json:"embedding_cache_cleanup"`
	EmbeddingCacheMaxAgeDays int    `json:"embedding_cache_max_age_days"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a JSON config, expanding ${VAR} references from the environment first.
func Parse(raw []byte) (*Config, error) {
	expanded := os.Expand(string(raw), func(key string) string {
		return jsonEscape(os.Getenv(key))
	})
	var cfg Config
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = defaultUploadMaxBytes
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if len(cfg.AI.Chat) == 0 {
		return fmt.Errorf("ai.chat requires at least one provider")
	}
	for i, item := range cfg.AI.Chat {
		if item.Provider == "" || item.Model == "" {
			return fmt.Errorf("ai.chat[%d] provider/model are required", i)
		}
	}
	for i, item := range cfg.AI.Embed {
		if item.Provider == "" || item.Model == "" {
			return fmt.Errorf("ai.embed[%d] provider/model are required", i)
		}
	}
	if cfg.AI.Timeout < 0 {
		return fmt.Errorf("ai.timeout must not be negative")
	}
	if cfg.Chat.ContextMode == "" {
		cfg.Chat.ContextMode = ContextModeFull
	}
	switch cfg.Chat.ContextMode {
	case ContextModeFull:
	case ContextModeVector:
		if len(cfg.AI.Embed) == 0 {
			return fmt.Errorf("chat.context_mode=vector requires ai.embed")
		}
	default:
		return fmt.Errorf("chat.context_mode must be full or vector")
	}
	if cfg.Chat.TopK <= 0 {
		cfg.Chat.TopK = 5
	}
	if cfg.ListCache.Type == "" {
		cfg.ListCache.Type = "lru"
	}
	switch cfg.ListCache.Type {
	case "none", "lru":
	case "redis":
		if cfg.ListCache.Redis.Addr == "" {
			return fmt.Errorf("list_cache.redis.addr is required for redis cache")
		}
	default:
		return fmt.Errorf("list_cache.type must be none, lru or redis")
	}
	if cfg.ListCache.Size <= 0 {
		cfg.ListCache.Size = 1024
	}
	if cfg.ListCache.TTLSeconds <= 0 {
		cfg.ListCache.TTLSeconds = 300
	}
	if cfg.Jobs.EmbeddingBackfillBatch <= 0 {
		cfg.Jobs.EmbeddingBackfillBatch = 20
	}
	if cfg.Jobs.EmbeddingCacheMaxAgeDays <= 0 {
		cfg.Jobs.EmbeddingCacheMaxAgeDays = 30
	}
	if cfg.Jobs.EmbeddingBackfill != "" && len(cfg.AI.Embed) == 0 {
		return fmt.Errorf("jobs.embedding_backfill requires ai.embed")
	}
	return nil
}

func jsonEscape(value string) string {
	data, err := json.Marshal(value)
	if err != nil {
		return value
	}
	return strings.TrimSuffix(strings.TrimPrefix(string(data), `"`), `"`)
}
