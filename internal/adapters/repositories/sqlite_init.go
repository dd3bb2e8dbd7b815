package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPackagesQuery := `
	CREATE TABLE IF NOT EXISTS packages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		tracking_number TEXT NOT NULL UNIQUE,
		pickup_code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'warehouse_arrived',
		warehouse_arrival_at TEXT NOT NULL,
		cafe_arrival_at TEXT,
		pickup_at TEXT,
		warehouse_email_sent INTEGER NOT NULL DEFAULT 0,
		cafe_email_sent INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	createStatusIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_packages_status
	ON packages(status);
	`

	createArrivalIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_packages_cafe_arrival_at
	ON packages(cafe_arrival_at);
	`

	statements := []string{
		createPackagesQuery,
		createStatusIndexQuery,
		createArrivalIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
