package config

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration for searchd. Defaults come from
// Default(), overridden by SEARCHD_* environment variables.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Embedder EmbedderConfig `koanf:"embedder"`
	LLM      LLMConfig      `koanf:"llm"`
	Search   SearchConfig   `koanf:"search"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"          validate:"gt=0,lte=65535"`
	CORSEnabled bool   `koanf:"cors_enabled"`
	// MaxUploadBytes bounds a single uploaded file.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL connection settings. ConnString wins when
// set; otherwise a DSN is synthesized from the individual fields.
type DatabaseConfig struct {
	ConnString     string        `koanf:"conn_string"`
	Host           string        `koanf:"host"`
	Port           string        `koanf:"port"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	DBName         string        `koanf:"name"`
	SSLMode        string        `koanf:"ssl_mode"`
	MaxConns       int           `koanf:"max_conns"       validate:"gte=1"`
	MinConns       int           `koanf:"min_conns"       validate:"gte=0"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// DSN returns the connection string for pgx.
func (d *DatabaseConfig) DSN() string {
	if d.ConnString != "" {
		return d.ConnString
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// EmbedderConfig selects and tunes the embedding provider. Dimension must
// match the model's output dimension; the engine fails loudly on mismatch.
type EmbedderConfig struct {
	Provider      string `koanf:"provider"        validate:"oneof=openai googleai ollama"`
	Model         string `koanf:"model"           validate:"required"`
	APIKey        string `koanf:"api_key"`
	BaseURL       string `koanf:"base_url"`
	Dimension     int    `koanf:"dimension"       validate:"gt=0"`
	BatchSize     int    `koanf:"batch_size"      validate:"gt=0"`
	CacheSize     int    `koanf:"cache_size"      validate:"gte=0"`
	StripNewLines bool   `koanf:"strip_new_lines"`
}

// LLMConfig selects and tunes the synthesis provider for RAG mode.
type LLMConfig struct {
	Provider    string        `koanf:"provider"    validate:"oneof=openai anthropic googleai ollama"`
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxTokens   int           `koanf:"max_tokens"  validate:"gt=0"`
	Temperature float64       `koanf:"temperature" validate:"gte=0,lte=2"`
}

// SearchConfig carries the retrieval and indexing tunables.
type SearchConfig struct {
	// Metric is fixed per deployment and must match the index build metric.
	Metric string `koanf:"metric" validate:"oneof=cosine l2 ip"`
	// IndexLists partitions the ivfflat index; ~sqrt(row count) is a good
	// starting point.
	IndexLists int `koanf:"index_lists" validate:"gte=1"`
	// IndexProbes trades recall for latency at query time.
	IndexProbes  int    `koanf:"index_probes"  validate:"gte=1"`
	ChunkSize    int    `koanf:"chunk_size"    validate:"gt=0"`
	ChunkOverlap int    `koanf:"chunk_overlap" validate:"gte=0"`
	FTSLanguage  string `koanf:"fts_language"  validate:"required"`
	// RankConstant is the reciprocal rank fusion smoothing constant.
	RankConstant int `koanf:"rank_constant" validate:"gt=0"`
	// CandidateMultiplier expands the hybrid candidate pool beyond top_k.
	CandidateMultiplier int `koanf:"candidate_multiplier" validate:"gte=1,lte=20"`
	// MaxTopK caps the per-query result size accepted from callers.
	MaxTopK int `koanf:"max_top_k" validate:"gt=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			CORSEnabled:    false,
			MaxUploadBytes: 50 << 20,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "searchd",
			Password:       "",
			DBName:         "searchd",
			SSLMode:        "disable",
			MaxConns:       20,
			MinConns:       0,
			ConnectTimeout: 5 * time.Second,
		},
		Embedder: EmbedderConfig{
			Provider:      "openai",
			Model:         "text-embedding-3-small",
			Dimension:     1536,
			BatchSize:     64,
			CacheSize:     1024,
			StripNewLines: true,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     30 * time.Second,
			MaxTokens:   512,
			Temperature: 0.2,
		},
		Search: SearchConfig{
			Metric:              "cosine",
			IndexLists:          100,
			IndexProbes:         10,
			ChunkSize:           1000,
			ChunkOverlap:        200,
			FTSLanguage:         "english",
			RankConstant:        60,
			CandidateMultiplier: 4,
			MaxTopK:             100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate enforces the cross-field invariants that struct tags cannot
// express.
func (c *Config) Validate() error {
	if c.Search.ChunkOverlap >= c.Search.ChunkSize {
		return fmt.Errorf(
			"config: chunk_overlap %d must be smaller than chunk_size %d",
			c.Search.ChunkOverlap, c.Search.ChunkSize,
		)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf(
			"config: database min_conns %d exceeds max_conns %d",
			c.Database.MinConns, c.Database.MaxConns,
		)
	}
	return nil
}
