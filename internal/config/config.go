package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Pipeline  PipelineConfig
	Ingest    IngestConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI       string
	Jina         string
	GoogleGemini string
}

type AIConfig struct {
	ChatModel         string // final answer generation
	SmallModel        string // guard / rewrite / validate
	EmbedModel        string
	EmbedDim          int
	OpenAIBaseURL     string // optional override for OpenAI-compatible gateways
	Temperature       float64
	LLMTimeoutSec     int // generation calls
	SmallLLMTimeoutSec int // classifier calls
}

type RetrievalConfig struct {
	BaseK         int
	KStep         int
	KMax          int
	FetchK        int // candidate pool before MMR down-selection
	MMREnabled    bool
	MMRLambda     float64 // 0 = diversity, 1 = similarity
	RerankEnabled bool
	RerankModel   string
}

type PipelineConfig struct {
	MaxAttempts int
}

type IngestConfig struct {
	Topic            string
	ChunkSize        int
	ChunkOverlap     int
	OCRConcurrency   int
	OCRTimeoutSec    int
	EmbedConcurrency int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			ChatModel:          getEnv("CHAT_MODEL", "gpt-4o-mini"),
			SmallModel:         getEnv("SMALL_MODEL", "gpt-4o-mini"),
			EmbedModel:         getEnv("EMBED_MODEL", "text-embedding-3-small"),
			EmbedDim:           getEnvAsInt("EMBED_DIM", 1536),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0.0),
			LLMTimeoutSec:      getEnvAsInt("LLM_TIMEOUT_SEC", 60),
			SmallLLMTimeoutSec: getEnvAsInt("SMALL_LLM_TIMEOUT_SEC", 10),
		},
		Retrieval: RetrievalConfig{
			BaseK:         getEnvAsInt("RETRIEVER_BASE_K", 6),
			KStep:         getEnvAsInt("RETRIEVER_K_STEP", 4),
			KMax:          getEnvAsInt("RETRIEVER_K_MAX", 20),
			FetchK:        getEnvAsInt("RETRIEVER_FETCH_K", 40),
			MMREnabled:    getEnvAsBool("RETRIEVER_MMR", false),
			MMRLambda:     getEnvAsFloat("RETRIEVER_MMR_LAMBDA", 0.5),
			RerankEnabled: getEnvAsBool("RETRIEVER_RERANK", false),
			RerankModel:   getEnv("RERANK_MODEL", "jina-reranker-v2-base-multilingual"),
		},
		Pipeline: PipelineConfig{
			MaxAttempts: getEnvAsInt("MAX_RETRY_ATTEMPTS", 2),
		},
		Ingest: IngestConfig{
			Topic:            getEnv("INGEST_TOPIC_NAME", "INGEST_ANNOUNCEMENT"),
			ChunkSize:        getEnvAsInt("CHUNK_SIZE", 1024),
			ChunkOverlap:     getEnvAsInt("CHUNK_OVERLAP", 128),
			OCRConcurrency:   getEnvAsInt("OCR_CONCURRENCY", 4),
			OCRTimeoutSec:    getEnvAsInt("OCR_TIMEOUT_SEC", 120),
			EmbedConcurrency: getEnvAsInt("EMBED_CONCURRENCY", 4),
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
