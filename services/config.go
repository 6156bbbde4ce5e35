package services

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded once from the environment.
type Config struct {
	Port           string
	GeminiAPIKey   string
	ChromaURL      string
	CollectionName string

	EmbeddingModel     string
	EmbeddingDimension int
	GenerationModel    string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	StoragePrefix  string

	ChunkSize    int
	ChunkOverlap int

	RetrieverTopK  int
	SemanticWeight float64

	MinSimilarity     float64
	MaxCitations      int
	CitationTextLimit int
	DefaultConfidence float64

	SessionMaxExchanges int

	WatchDir string
}

// LoadConfig reads settings from a .env file (if present) and the
// environment, applying defaults for everything but credentials.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		ChromaURL:      getEnv("CHROMA_URL", "http://localhost:8000"),
		CollectionName: getEnv("COLLECTION_NAME", "pdf-collection"),

		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 768),
		GenerationModel:    getEnv("GENERATION_MODEL", "gemini-2.5-flash"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "pdfchat"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		StoragePrefix:  getEnv("STORAGE_PREFIX", "storage_01/"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 150),

		RetrieverTopK:  getEnvInt("RETRIEVER_TOP_K", 3),
		SemanticWeight: getEnvFloat("HYBRID_SEMANTIC_WEIGHT", 0.7),

		MinSimilarity:     getEnvFloat("RANKER_MIN_SIMILARITY", 0.7),
		MaxCitations:      getEnvInt("RANKER_MAX_CITATIONS", 3),
		CitationTextLimit: getEnvInt("RANKER_CITATION_TEXT_LIMIT", 500),
		DefaultConfidence: getEnvFloat("RANKER_DEFAULT_CONFIDENCE", 0.8),

		SessionMaxExchanges: getEnvInt("SESSION_MAX_EXCHANGES", 5),

		WatchDir: os.Getenv("WATCH_DIR"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
