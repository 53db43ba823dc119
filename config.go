// Package agrichat is a retrieval-augmented chat assistant: it persists
// per-user conversation history, retrieves reference passages from ingested
// documents, and assembles token-budgeted prompts for a language model.
package agrichat

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything the service needs to wire its collaborators.
type Config struct {
	// Relational store for conversation history and the file registry.
	StoreType       string // "sqlite" or "postgres"
	StoreConnection string

	// Vector store (pgvector) for reference passages.
	VectorURL  string
	Collection string

	// Model collaborators.
	Provider       string // "openai" or "gemini"
	ChatModel      string
	EmbeddingModel string
	OpenAIAPIKey   string
	AIName         string

	// Budgets and retrieval tuning.
	ConversationLimit int
	DocsLimit         int
	ChunkSize         int
	RetrievalK        int

	// HTTP listen address.
	Addr string
}

// NewConfig creates a configuration with default values
func NewConfig() *Config {
	return &Config{
		StoreType:         "sqlite",
		StoreConnection:   "agrichat.sqlite",
		Collection:        "data",
		Provider:          "openai",
		AIName:            "AgriChat",
		ConversationLimit: 800,
		DocsLimit:         3000,
		ChunkSize:         2000,
		RetrievalK:        5,
		Addr:              ":8080",
	}
}

// LoadConfigFromEnv builds a configuration from environment variables,
// loading a .env file first if one exists (not present in production).
func LoadConfigFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	cfg := NewConfig()
	cfg.StoreType = envOr("STORE_TYPE", cfg.StoreType)
	cfg.StoreConnection = envOr("STORE_CONNECTION", cfg.StoreConnection)
	cfg.VectorURL = envOr("VECTOR_DATABASE_URL", cfg.VectorURL)
	cfg.Collection = envOr("VECTOR_COLLECTION", cfg.Collection)
	cfg.Provider = envOr("MODEL_PROVIDER", cfg.Provider)
	cfg.ChatModel = envOr("CHAT_MODEL", cfg.ChatModel)
	cfg.EmbeddingModel = envOr("EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AIName = envOr("AI_NAME", cfg.AIName)
	cfg.ConversationLimit = envIntOr("CONVERSATION_TOKEN_LIMIT", cfg.ConversationLimit)
	cfg.DocsLimit = envIntOr("DOCS_TOKEN_LIMIT", cfg.DocsLimit)
	cfg.ChunkSize = envIntOr("CHUNK_SIZE", cfg.ChunkSize)
	cfg.RetrievalK = envIntOr("RETRIEVAL_K", cfg.RetrievalK)
	cfg.Addr = envOr("LISTEN_ADDR", cfg.Addr)

	// The postgres DSN doubles as the vector URL when none is set explicitly.
	if cfg.VectorURL == "" && cfg.StoreType == "postgres" {
		cfg.VectorURL = cfg.StoreConnection
	}

	return cfg
}

// WithStore sets the relational store backend
func (c *Config) WithStore(storeType, connection string) *Config {
	c.StoreType = storeType
	c.StoreConnection = connection
	return c
}

// WithVectorStore sets the pgvector connection URL and collection name
func (c *Config) WithVectorStore(url, collection string) *Config {
	c.VectorURL = url
	c.Collection = collection
	return c
}

// WithProvider sets the model provider and chat model
func (c *Config) WithProvider(provider, chatModel string) *Config {
	c.Provider = provider
	c.ChatModel = chatModel
	return c
}

// WithAIName sets the assistant's display name
func (c *Config) WithAIName(name string) *Config {
	c.AIName = name
	return c
}

// WithBudgets sets the conversation and docs token budgets
func (c *Config) WithBudgets(conversationLimit, docsLimit int) *Config {
	c.ConversationLimit = conversationLimit
	c.DocsLimit = docsLimit
	return c
}

// PostgresDSN assembles a DSN from the discrete DATABASE_* variables, for
// deployments that don't provide a single connection string.
func PostgresDSN() string {
	host := envOr("DATABASE_HOST", "localhost")
	port := envOr("DATABASE_PORT", "5432")
	user := envOr("DATABASE_USER", "postgres")
	password := os.Getenv("DATABASE_PASSWORD")
	name := envOr("DB_NAME", "agrichat")
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", user, password, host, port, name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-integer environment value")
		return fallback
	}
	return n
}
