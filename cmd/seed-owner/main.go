package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/database"
	"github.com/chalkitup/backend/internal/owners"
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

	// Seed owner account
	email := os.Getenv("OWNER_EMAIL")
	if email == "" {
		email = "owner@chalkitup.local"
		log.Printf("Using default owner email: %s", email)
	}

	password := os.Getenv("OWNER_PASSWORD")
	if password == "" {
		password = "change-me-in-production"
		log.Printf("WARNING: Using default owner password. Set OWNER_PASSWORD env var in production!")
	}

	displayName := os.Getenv("OWNER_NAME")
	if displayName == "" {
		displayName = "House Owner"
	}

	acct, err := owners.Register(db, email, password, displayName)
	if err != nil {
		if errors.Is(err, owners.ErrEmailTaken) {
			log.Printf("Owner account %s already exists; nothing to do", email)
			return
		}
		log.Fatalf("Failed to create owner account: %v", err)
	}

	log.Printf("✓ Owner account created successfully")
	log.Printf("  Email: %s", acct.Email)
	log.Printf("  Display Name: %s", acct.DisplayName)
	log.Println("\nYou can now login at POST /api/v1/owner/login with:")
	log.Printf("  Email: %s", acct.Email)
	log.Printf("  Password: %s", password)
}
