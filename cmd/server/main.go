package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"cafe-pickup-service/internal/adapters/events"
	"cafe-pickup-service/internal/adapters/mail"
	"cafe-pickup-service/internal/adapters/repositories"
	"cafe-pickup-service/internal/api"
	"cafe-pickup-service/internal/config"
	"cafe-pickup-service/internal/ports"
	"cafe-pickup-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, SMTP, Kafka) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "")
	port := config.Get("PORT", "8080")
	baseURL := config.Get("BASE_URL", "")
	queueSize := config.GetInt("BULK_QUEUE_SIZE", 16)

	db, err := openDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Initialize schema (and seed demo data when asked) on startup for
	// local runs. Production deploys use cmd/dbtool instead.
	if err := repositories.InitSchema(db); err != nil {
		log.Fatal(err)
	}
	if seedPath != "" {
		if err := repositories.SeedFromJSON(db, seedPath); err != nil {
			log.Fatal(err)
		}
	}

	repo := repositories.NewSqlitePackageRepository(db)

	sender, err := buildMailSender()
	if err != nil {
		log.Fatal(err)
	}

	publisher, err := events.NewPublisher(config.GetList("KAFKA_BROKERS"), config.Get("KAFKA_TOPIC", "package-status"))
	if err != nil {
		log.Fatal(err)
	}
	defer publisher.Close()

	notifier := services.NewNotifier(repo, sender)
	lifecycle := services.NewLifecycle(repo, publisher)
	importer := services.NewImporter(repo)
	dispatcher := services.NewDispatcher(repo, notifier, queueSize)

	router := api.NewRouter(api.Deps{
		Repo:       repo,
		Notifier:   notifier,
		Lifecycle:  lifecycle,
		Importer:   importer,
		Dispatcher: dispatcher,
		BaseURL:    baseURL,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Drain the bulk email worker before exit so queued sends are not lost.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	dispatcher.Shutdown()
}

// buildMailSender returns the SMTP sender, or an in-memory stand-in when
// SMTP is not configured so the rest of the app stays usable in dev.
func buildMailSender() (ports.MailSender, error) {
	host := config.Get("SMTP_HOST", "")
	if host == "" {
		log.Println("SMTP_HOST not set, emails will be recorded but not delivered")
		return &mail.MockSender{}, nil
	}

	return mail.NewSMTPSender(
		host,
		config.GetInt("SMTP_PORT", 587),
		config.Get("SMTP_USERNAME", ""),
		config.Get("SMTP_PASSWORD", ""),
		config.Get("MAIL_FROM", ""),
	)
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}
