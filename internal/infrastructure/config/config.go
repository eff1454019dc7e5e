// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB (ticket document store)
	MongoURI      string `validate:"required"`
	MongoDB       string `validate:"required"`
	MongoUser     string
	MongoPassword string

	// PostgreSQL (conductor reference data)
	PostgresURI string `validate:"required"`

	// Reconciliation engine
	FetchParallelism int    `validate:"gte=1,lte=64"`
	ReportTimezone   string `validate:"required"`
	MetricsNamespace string `validate:"required"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "faremetrics"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "postgres://localhost:5432/faremetrics"),

		FetchParallelism: getEnvAsInt("FETCH_PARALLELISM", 8),
		ReportTimezone:   getEnv("REPORT_TIMEZONE", "Asia/Manila"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "faremetrics"),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.LoadLocation(config.ReportTimezone); err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", config.ReportTimezone, err)
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
