package db

import (
	"database/sql"
	"fmt"
	"time"
)

// OpenPostgres opens and verifies the hosted Postgres store used by the
// dbtool deploy path. The local server runs on SQLite instead.
func OpenPostgres(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	// modest pool: the tool and the service are single-tenant
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}
