package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Table engine
	TxnMaxRetries        int
	SweepIntervalSeconds int
	TableTTLHours        int

	// Security
	JWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		// Environment
		Environment: getEnv("ENVIRONMENT", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/chalkitup?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table engine
		TxnMaxRetries:        getEnvInt("TXN_MAX_RETRIES", 5),
		SweepIntervalSeconds: getEnvInt("SWEEP_INTERVAL_SECONDS", 15),
		TableTTLHours:        getEnvInt("TABLE_TTL_HOURS", 48),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}

	if cfg.Environment == "production" && cfg.JWTSecret == "change-me-in-production" {
		log.Printf("[CONFIG] JWT_SECRET is unset in production")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
