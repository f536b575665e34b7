package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderAPIKey is the value shipped in .env.example; the LLM service
// refuses to start requests until it has been replaced.
const PlaceholderAPIKey = "YOUR_API_KEY_HERE"

type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string
	HTTPAddr  string

	XAIAPIKey  string
	XAIBaseURL string
	XAIModel   string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string

	PromptsPath string

	// JourneyEpoch is the day-one date used to compute conversation day numbers.
	JourneyEpoch time.Time
}

func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "expander"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),

		XAIAPIKey:  getEnv("XAI_API_KEY", ""),
		XAIBaseURL: getEnv("XAI_BASE_URL", "https://api.x.ai/v1"),
		XAIModel:   getEnv("XAI_MODEL", "grok-3-mini"),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "expander-journal"),

		PromptsPath: getEnv("PROMPTS_PATH", "prompts.yaml"),

		JourneyEpoch: parseEpoch(getEnv("JOURNEY_EPOCH", "2025-09-15")),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func parseEpoch(raw string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC)
	}
	return t
}
