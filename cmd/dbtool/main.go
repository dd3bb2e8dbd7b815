package main

import (
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"cafe-pickup-service/internal/config"
	"cafe-pickup-service/internal/platform/db"
)

// dbtool runs schema migrations against the hosted Postgres database.
// The server itself runs on SQLite; this covers the managed deploy path.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.OpenPostgres(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	migrationsDir := config.Get("MIGRATIONS_DIR", "migrations")

	log.Println("Running migrations...")
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose dialect: %v", err)
	}
	if err := goose.Up(conn, migrationsDir); err != nil {
		log.Fatalf("goose up error: %v", err)
	}
	log.Println("Schema ready.")
}
