package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/chalkitup/backend/internal/api"
	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/coordinator"
	"github.com/chalkitup/backend/internal/database"
	"github.com/chalkitup/backend/internal/migrations"
	"github.com/chalkitup/backend/internal/redisclient"
	"github.com/chalkitup/backend/internal/store"
	"github.com/chalkitup/backend/internal/sweeper"
	"github.com/chalkitup/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redisclient.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Wire the table engine: store -> coordinator -> websocket hub
	st := store.New(rdb, db, cfg.TableTTLHours)
	coord := coordinator.New(st, cfg)
	hub := ws.NewHub(st)

	// Start the deadline sweeper (hold expiry, no-show warnings)
	sweeper.Start(context.Background(), st, coord, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, coord, hub, db, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Chalk It Up server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
