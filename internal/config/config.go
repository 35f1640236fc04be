// Package config loads all environment variables for the context-api-go service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
)

// Config holds all configuration for the document pruning service.
type Config struct {
	// Server
	APIHost string
	APIPort string

	// Database
	DatabaseURL string

	// Embedding chunk settings
	EnableConnectorEmbeddingSettings bool
	DocEmbeddingContextSize          int
	ChunkOverlap                     int
	EmbeddingLookupConcurrency       int
	EmbeddingCacheSize               int
	EmbeddingCacheTTLSeconds         int

	// Tokenizer is a tiktoken encoding or model name.
	Tokenizer string

	// Fallback LLM when a request carries none
	LLMModel           string
	LLMContextWindow   int
	LLMMaxOutputTokens int

	// RequestMaxSizeMB caps the prune request body.
	RequestMaxSizeMB int

	// AuthEnabled controls whether JWT auth is enforced
	AuthEnabled bool

	// JWTSecret is the HMAC-SHA256 signing key for JWT tokens
	JWTSecret string

	// JWTExpiryHours is the JWT token lifetime in hours (default 24)
	JWTExpiryHours int

	// Timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIHost: envOr("API_HOST", "0.0.0.0"),
		APIPort: envOr("API_PORT", "8000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		EnableConnectorEmbeddingSettings: envBool("ENABLE_CONNECTOR_EMBEDDING_SETTINGS", false),
		DocEmbeddingContextSize:          envInt("DOC_EMBEDDING_CONTEXT_SIZE", 512),
		ChunkOverlap:                     envInt("CHUNK_OVERLAP", 0),
		EmbeddingLookupConcurrency:       envInt("EMBEDDING_LOOKUP_CONCURRENCY", 8),
		EmbeddingCacheSize:               envInt("EMBEDDING_CACHE_SIZE", 1024),
		EmbeddingCacheTTLSeconds:         envInt("EMBEDDING_CACHE_TTL_SECONDS", 60),

		Tokenizer: envOr("TOKENIZER_ENCODING", "cl100k_base"),

		LLMModel:           envOr("LLM_MODEL", "gpt-4"),
		LLMContextWindow:   envInt("LLM_CONTEXT_WINDOW", 8192),
		LLMMaxOutputTokens: envInt("LLM_MAX_OUTPUT_TOKENS", 1024),

		RequestMaxSizeMB: envInt("REQUEST_MAX_SIZE_MB", 10),

		AuthEnabled:    envBool("AUTH_ENABLED", false),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiryHours: envInt("JWT_EXPIRY_HOURS", 24),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when AUTH_ENABLED=true")
	}
	if cfg.DocEmbeddingContextSize <= 0 {
		return nil, fmt.Errorf("DOC_EMBEDDING_CONTEXT_SIZE must be positive, got %d", cfg.DocEmbeddingContextSize)
	}

	return cfg, nil
}

// Addr returns the listen address as "host:port".
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.APIHost, c.APIPort)
}

// EmbeddingDefaults returns the system-wide chunk settings.
func (c *Config) EmbeddingDefaults() model.EmbeddingChunkConfig {
	return model.EmbeddingChunkConfig{
		EmbeddingSize: c.DocEmbeddingContextSize,
		ChunkOverlap:  c.ChunkOverlap,
	}
}

// EmbeddingCacheTTL returns the lookup cache TTL as a time.Duration.
func (c *Config) EmbeddingCacheTTL() time.Duration {
	return time.Duration(c.EmbeddingCacheTTLSeconds) * time.Second
}

// DefaultLLM returns the model used when a request does not name one.
func (c *Config) DefaultLLM() model.LLMConfig {
	return model.LLMConfig{
		ModelName:       c.LLMModel,
		ContextWindow:   c.LLMContextWindow,
		MaxOutputTokens: c.LLMMaxOutputTokens,
	}
}

// RequestMaxSizeBytes returns the max request body size in bytes.
func (c *Config) RequestMaxSizeBytes() int64 {
	return int64(c.RequestMaxSizeMB) * 1024 * 1024
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
