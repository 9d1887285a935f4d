package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

// schemaEmbedDim is the dimension of the chunks.embedding column.
const schemaEmbedDim = 768

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	Data       interface{} `json:"data"`
	ChatModel  string      `json:"chat_model"`
	EmbedModel string      `json:"embed_model"`
	EmbedDim   int         `json:"embed_dim"`
	// Per-capability timeouts in seconds. Embed/rewrite/summarize timeouts
	// degrade a turn; the generate timeout fails it.
	EmbedTimeout     int `json:"embed_timeout"`
	RewriteTimeout   int `json:"rewrite_timeout"`
	SummarizeTimeout int `json:"summarize_timeout"`
	GenerateTimeout  int `json:"generate_timeout"`
	EmbedCacheSize   int `json:"embed_cache_size"`
	EmbedCacheTTL    int `json:"embed_cache_ttl_minutes"`
}

type PipelineConfig struct {
	SummarizeTrigger int `json:"summarize_trigger"`
	SummarizeKeep    int `json:"summarize_keep"`
	RewriteWindow    int `json:"rewrite_window"`
	TopK             int `json:"top_k"`
	// Idle runtime state for a thread is evicted after this many minutes.
	ThreadStateTTL int `json:"thread_state_ttl_minutes"`
	RateLimitMS    int `json:"rate_limit_ms"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type JobsConfig struct {
	EmbeddingBackfillCron string `json:"embedding_backfill_cron"`
	ThreadCleanupCron     string `json:"thread_cleanup_cron"`
	ThreadRetentionDays   int    `json:"thread_retention_days"`
}

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	Pipeline      PipelineConfig   `json:"pipeline"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Jobs          JobsConfig       `json:"jobs"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.ChatModel == "" || cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.chat_model and ai.embed_model are required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = schemaEmbedDim
	}
	// The chunks.embedding column is created as vector(768); a mismatched
	// dimension would only fail later, at the first insert.
	if cfg.AI.EmbedDim != schemaEmbedDim {
		return nil, fmt.Errorf("ai.embed_dim %d does not match the vector(%d) column in internal/db/migrations/0001_init.sql, change both together",
			cfg.AI.EmbedDim, schemaEmbedDim)
	}
	if cfg.AI.EmbedTimeout == 0 {
		cfg.AI.EmbedTimeout = 15
	}
	if cfg.AI.RewriteTimeout == 0 {
		cfg.AI.RewriteTimeout = 20
	}
	if cfg.AI.SummarizeTimeout == 0 {
		cfg.AI.SummarizeTimeout = 30
	}
	if cfg.AI.GenerateTimeout == 0 {
		cfg.AI.GenerateTimeout = 120
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 120
	}
	if cfg.Pipeline.SummarizeTrigger == 0 {
		cfg.Pipeline.SummarizeTrigger = 12
	}
	if cfg.Pipeline.SummarizeKeep == 0 {
		cfg.Pipeline.SummarizeKeep = 4
	}
	if cfg.Pipeline.RewriteWindow == 0 {
		cfg.Pipeline.RewriteWindow = 3
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 5
	}
	if cfg.Pipeline.ThreadStateTTL == 0 {
		cfg.Pipeline.ThreadStateTTL = 60
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Jobs.EmbeddingBackfillCron == "" {
		cfg.Jobs.EmbeddingBackfillCron = "*/5 * * * *"
	}
	if cfg.Jobs.ThreadCleanupCron == "" {
		cfg.Jobs.ThreadCleanupCron = "30 3 * * *"
	}
	if cfg.Jobs.ThreadRetentionDays == 0 {
		cfg.Jobs.ThreadRetentionDays = 30
	}
	return &cfg, nil
}
