package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"cafe-pickup-service/internal/domain"
)

type PackageSeed struct {
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	TrackingNumber string `json:"tracking_number"`
	PickupCode     string `json:"pickup_code"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

// Populate the database with demo packages from a JSON file.
// Rows are keyed by tracking number, so re-running against an already
// seeded database is a no-op.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed packages: read %q: %w", jsonPath, err)
	}

	var data []PackageSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed packages: parse json: %w", err)
	}

	rows := make([]PackageSeed, 0, len(data))
	for i, item := range data {
		item.CustomerName = strings.TrimSpace(item.CustomerName)
		item.TrackingNumber = strings.TrimSpace(item.TrackingNumber)
		item.PickupCode = strings.TrimSpace(item.PickupCode)

		if item.CustomerName == "" {
			return fmt.Errorf("seed packages: item at index %d: customer_name cannot be empty", i+1)
		}
		if item.TrackingNumber == "" {
			return fmt.Errorf("seed packages: item at index %d: tracking_number cannot be empty", i+1)
		}
		if item.PickupCode == "" {
			return fmt.Errorf("seed packages: item at index %d: pickup_code cannot be empty", i+1)
		}
		if item.Status == "" {
			item.Status = string(domain.StatusWarehouseArrived)
		}
		if !domain.ValidStatus(domain.Status(item.Status)) {
			return fmt.Errorf("seed packages: item at index %d: unknown status %q", i+1, item.Status)
		}
		rows = append(rows, item)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed packages: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT OR IGNORE INTO packages (
		customer_name,
		customer_email,
		tracking_number,
		pickup_code,
		status,
		warehouse_arrival_at,
		notes,
		created_at,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed packages: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, p := range rows {
		if _, err := stmt.Exec(
			p.CustomerName, p.CustomerEmail, p.TrackingNumber, p.PickupCode,
			p.Status, now, p.Notes, now, now,
		); err != nil {
			return fmt.Errorf("seed packages: insert tracking_number=%s: %w", p.TrackingNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed packages: commit tx: %w", err)
	}

	return nil
}
