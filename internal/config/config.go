package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	BaseURL   string
	UploadDir string
	Database  DatabaseConfig
	Sync      SyncConfig
	Gemini    GeminiConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// SyncConfig holds tunables for the synchronization protocol
type SyncConfig struct {
	// ClockSkew is how far in the future a client-supplied creation time may
	// lie before it is discarded in favor of server time.
	ClockSkew time.Duration
}

// GeminiConfig holds the optional AI summarizer configuration
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	skew := 5 * time.Minute
	if v := os.Getenv("SYNC_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_CLOCK_SKEW %q: %w", v, err)
		}
		skew = d
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "5000"),
		JWTSecret: jwtSecret,
		BaseURL:   getEnv("BASE_URL", "http://localhost:5000"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "indureport"),
		},
		Sync: SyncConfig{
			ClockSkew: skew,
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
