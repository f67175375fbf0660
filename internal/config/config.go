package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	RagLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini   string
	EmbedDocsTopic string // Watermill topic for document chunk embedding
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "gemini"
	LLMModel          string // e.g. "llama3", "qwen2.5"
}

// RagConfig carries every tunable of the answer pipeline. It is built once at
// startup and handed to the orchestrator; nothing in the pipeline reads env
// vars or globals directly.
type RagConfig struct {
	MaxIterations        int
	MaxRetrievalAttempts int
	RelevanceThreshold   float64
	MinRelevantDocuments int
	TopK                 int
	EnableRewrite        bool
	EnableVerification   bool
	KeepAliveInterval    time.Duration
	CapabilityTimeout    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			RagLogFilePath:     getEnv("RAG_LOG_FILE_PATH", "logs/rag_pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			EmbedDocsTopic: getEnv("EMBED_DOCUMENT_TOPIC_NAME", "EMBED_DOCUMENT_CONTENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Rag: RagConfig{
			MaxIterations:        getEnvAsInt("RAG_MAX_ITERATIONS", 20),
			MaxRetrievalAttempts: getEnvAsInt("RAG_MAX_RETRIEVAL_ATTEMPTS", 3),
			RelevanceThreshold:   getEnvAsFloat("RAG_RELEVANCE_THRESHOLD", 0.7),
			MinRelevantDocuments: getEnvAsInt("RAG_MIN_RELEVANT_DOCUMENTS", 1),
			TopK:                 getEnvAsInt("RAG_TOP_K", 10),
			EnableRewrite:        getEnvAsBool("RAG_ENABLE_REWRITE", true),
			EnableVerification:   getEnvAsBool("RAG_ENABLE_VERIFICATION", true),
			KeepAliveInterval:    time.Duration(getEnvAsInt("RAG_KEEPALIVE_SECONDS", 30)) * time.Second,
			CapabilityTimeout:    time.Duration(getEnvAsInt("RAG_CAPABILITY_TIMEOUT_SECONDS", 120)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
