package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

// Timestamps are stored as RFC3339Nano TEXT so rows stay readable and
// comparable with plain string ordering.
const timeLayout = time.RFC3339Nano

// SQLite-backed implementation of the PackageRepository port.
type SqlitePackageRepository struct{ DB *sql.DB }

func NewSqlitePackageRepository(db *sql.DB) *SqlitePackageRepository {
	return &SqlitePackageRepository{DB: db}
}

const packageColumns = `
	id,
	customer_name,
	customer_email,
	tracking_number,
	pickup_code,
	status,
	warehouse_arrival_at,
	cafe_arrival_at,
	pickup_at,
	warehouse_email_sent,
	cafe_email_sent,
	notes,
	created_at,
	updated_at`

func (s *SqlitePackageRepository) Create(ctx context.Context, pkg *domain.Package) error {
	if s.DB == nil {
		return errors.New("package repository: DB is nil")
	}

	query := `
	INSERT INTO packages (
		customer_name, customer_email, tracking_number, pickup_code, status,
		warehouse_arrival_at, cafe_arrival_at, pickup_at,
		warehouse_email_sent, cafe_email_sent, notes, created_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	res, err := s.DB.ExecContext(ctx, query,
		pkg.CustomerName, pkg.CustomerEmail, pkg.TrackingNumber, pkg.PickupCode, string(pkg.Status),
		formatTime(pkg.WarehouseArrivalAt), formatTimePtr(pkg.CafeArrivalAt), formatTimePtr(pkg.PickupAt),
		boolToInt(pkg.WarehouseEmailSent), boolToInt(pkg.CafeEmailSent), pkg.Notes,
		formatTime(pkg.CreatedAt), formatTime(pkg.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create package: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create package: last insert id: %w", err)
	}
	pkg.ID = id
	return nil
}

// Insert every package inside one transaction; any failure rolls all of
// them back.
func (s *SqlitePackageRepository) CreateBatch(ctx context.Context, pkgs []*domain.Package) error {
	if s.DB == nil {
		return errors.New("package repository: DB is nil")
	}
	if len(pkgs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create batch: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO packages (
		customer_name, customer_email, tracking_number, pickup_code, status,
		warehouse_arrival_at, cafe_arrival_at, pickup_at,
		warehouse_email_sent, cafe_email_sent, notes, created_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("create batch: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, pkg := range pkgs {
		res, err := stmt.ExecContext(ctx,
			pkg.CustomerName, pkg.CustomerEmail, pkg.TrackingNumber, pkg.PickupCode, string(pkg.Status),
			formatTime(pkg.WarehouseArrivalAt), formatTimePtr(pkg.CafeArrivalAt), formatTimePtr(pkg.PickupAt),
			boolToInt(pkg.WarehouseEmailSent), boolToInt(pkg.CafeEmailSent), pkg.Notes,
			formatTime(pkg.CreatedAt), formatTime(pkg.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("create batch: insert tracking_number=%q: %w", pkg.TrackingNumber, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create batch: last insert id: %w", err)
		}
		pkg.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create batch: commit tx: %w", err)
	}
	return nil
}

func (s *SqlitePackageRepository) GetByID(ctx context.Context, id int64) (*domain.Package, error) {
	if s.DB == nil {
		return nil, errors.New("package repository: DB is nil")
	}

	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = ?;`
	pkg, err := scanPackage(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get package id=%d: %w", id, err)
	}
	return pkg, nil
}

func (s *SqlitePackageRepository) Update(ctx context.Context, pkg *domain.Package) error {
	if s.DB == nil {
		return errors.New("package repository: DB is nil")
	}

	query := `
	UPDATE packages SET
		customer_name = ?,
		customer_email = ?,
		tracking_number = ?,
		pickup_code = ?,
		status = ?,
		warehouse_arrival_at = ?,
		cafe_arrival_at = ?,
		pickup_at = ?,
		warehouse_email_sent = ?,
		cafe_email_sent = ?,
		notes = ?,
		updated_at = ?
	WHERE id = ?;
	`
	res, err := s.DB.ExecContext(ctx, query,
		pkg.CustomerName, pkg.CustomerEmail, pkg.TrackingNumber, pkg.PickupCode, string(pkg.Status),
		formatTime(pkg.WarehouseArrivalAt), formatTimePtr(pkg.CafeArrivalAt), formatTimePtr(pkg.PickupAt),
		boolToInt(pkg.WarehouseEmailSent), boolToInt(pkg.CafeEmailSent), pkg.Notes,
		formatTime(pkg.UpdatedAt), pkg.ID,
	)
	if err != nil {
		return fmt.Errorf("update package id=%d: %w", pkg.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *SqlitePackageRepository) Delete(ctx context.Context, id int64) error {
	if s.DB == nil {
		return errors.New("package repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM packages WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete package id=%d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *SqlitePackageRepository) DeleteWhere(ctx context.Context, status domain.Status) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("package repository: DB is nil")
	}

	query := `DELETE FROM packages;`
	args := []any{}
	if status != "" {
		query = `DELETE FROM packages WHERE status = ?;`
		args = append(args, string(status))
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete packages status=%q: %w", status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete packages: rows affected: %w", err)
	}
	return n, nil
}

// One page for the staff listing: newest cafe arrivals first, packages not
// yet at the cafe after them, plus the total match count.
func (s *SqlitePackageRepository) List(ctx context.Context, q ports.ListQuery) ([]*domain.Package, int, error) {
	if s.DB == nil {
		return nil, 0, errors.New("package repository: DB is nil")
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}

	var filters []string
	var args []any
	if q.Status != "" {
		filters = append(filters, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		filters = append(filters,
			"(customer_name LIKE ? OR customer_email LIKE ? OR tracking_number LIKE ? OR pickup_code LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}

	where := ""
	if len(filters) > 0 {
		where = " WHERE " + strings.Join(filters, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM packages` + where + `;`
	if err := s.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list packages: count: %w", err)
	}

	query := `SELECT ` + packageColumns + ` FROM packages` + where + `
	ORDER BY cafe_arrival_at IS NULL, cafe_arrival_at DESC, id DESC
	LIMIT ? OFFSET ?;`
	pageArgs := append(args, q.PerPage, (q.Page-1)*q.PerPage)

	pkgs, err := s.queryPackages(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, total, nil
}

func (s *SqlitePackageRepository) ListAll(ctx context.Context) ([]*domain.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages
	ORDER BY cafe_arrival_at IS NULL, cafe_arrival_at DESC, id DESC;`

	pkgs, err := s.queryPackages(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all packages: %w", err)
	}
	return pkgs, nil
}

func (s *SqlitePackageRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages
	WHERE status = ?
	ORDER BY cafe_arrival_at IS NULL, cafe_arrival_at DESC, id DESC;`

	pkgs, err := s.queryPackages(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list packages status=%q: %w", status, err)
	}
	return pkgs, nil
}

func (s *SqlitePackageRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Package, error) {
	if len(ids) == 0 {
		return []*domain.Package{}, nil
	}

	// SQLite does not support binding slices in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain
	// parameterized.
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT `+packageColumns+` FROM packages
	WHERE id IN (%s)
	ORDER BY id;`, strings.Join(ph, ","))

	pkgs, err := s.queryPackages(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list packages by ids: %w", err)
	}
	return pkgs, nil
}

func (s *SqlitePackageRepository) ListPendingEmail(ctx context.Context, kind domain.NotificationKind) ([]*domain.Package, error) {
	status, column, err := kindColumns(kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + packageColumns + ` FROM packages
	WHERE status = ? AND ` + column + ` = 0
	ORDER BY id;`

	pkgs, err := s.queryPackages(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list pending %s emails: %w", kind, err)
	}
	return pkgs, nil
}

func (s *SqlitePackageRepository) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM packages WHERE tracking_number = ? LIMIT 1;`, trackingNumber)
}

func (s *SqlitePackageRepository) PickupCodeExists(ctx context.Context, code string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM packages WHERE pickup_code = ? LIMIT 1;`, code)
}

// Field-level update by ID: a concurrent edit to other columns is never
// overwritten by a stale snapshot.
func (s *SqlitePackageRepository) MarkEmailSent(ctx context.Context, id int64, kind domain.NotificationKind, at time.Time) error {
	_, column, err := kindColumns(kind)
	if err != nil {
		return err
	}

	query := `UPDATE packages SET ` + column + ` = 1, updated_at = ? WHERE id = ?;`
	res, err := s.DB.ExecContext(ctx, query, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark %s email sent id=%d: %w", kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *SqlitePackageRepository) Stats(ctx context.Context, now time.Time) (*ports.Stats, error) {
	if s.DB == nil {
		return nil, errors.New("package repository: DB is nil")
	}

	today := now.UTC().Format("2006-01-02")
	query := `
	SELECT
		COUNT(*),
		COALESCE(SUM(status = 'warehouse_arrived'), 0),
		COALESCE(SUM(status = 'cafe_arrived'), 0),
		COALESCE(SUM(status = 'picked_up'), 0),
		COALESCE(SUM(cafe_arrival_at LIKE ? || '%'), 0)
	FROM packages;
	`
	st := &ports.Stats{}
	err := s.DB.QueryRowContext(ctx, query, today).Scan(
		&st.Total, &st.WarehouseArrived, &st.CafeArrived, &st.PickedUp, &st.TodayCafeArrived,
	)
	if err != nil {
		return nil, fmt.Errorf("package stats: %w", err)
	}
	return st, nil
}

func (s *SqlitePackageRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	if s.DB == nil {
		return false, errors.New("package repository: DB is nil")
	}

	var one int
	err := s.DB.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence probe: %w", err)
	}
	return true, nil
}

func (s *SqlitePackageRepository) queryPackages(ctx context.Context, query string, args ...any) ([]*domain.Package, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query packages table: %w", err)
	}
	defer rows.Close()

	pkgs := make([]*domain.Package, 0, 16)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return pkgs, nil
}

func kindColumns(kind domain.NotificationKind) (domain.Status, string, error) {
	switch kind {
	case domain.NotifyWarehouseArrival:
		return domain.StatusWarehouseArrived, "warehouse_email_sent", nil
	case domain.NotifyCafeArrival:
		return domain.StatusCafeArrived, "cafe_email_sent", nil
	}
	return "", "", fmt.Errorf("unknown notification kind %q", kind)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (*domain.Package, error) {
	var (
		pkg              domain.Package
		status           string
		warehouseAt      string
		cafeAt, pickupAt sql.NullString
		createdAt        string
		updatedAt        string
		warehouseSent    int
		cafeSent         int
	)

	err := row.Scan(
		&pkg.ID, &pkg.CustomerName, &pkg.CustomerEmail, &pkg.TrackingNumber, &pkg.PickupCode,
		&status, &warehouseAt, &cafeAt, &pickupAt,
		&warehouseSent, &cafeSent, &pkg.Notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	pkg.Status = domain.Status(status)
	pkg.WarehouseEmailSent = warehouseSent != 0
	pkg.CafeEmailSent = cafeSent != 0

	if pkg.WarehouseArrivalAt, err = parseTime(warehouseAt); err != nil {
		return nil, err
	}
	if pkg.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if pkg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if pkg.CafeArrivalAt, err = parseTimePtr(cafeAt); err != nil {
		return nil, err
	}
	if pkg.PickupAt, err = parseTimePtr(pickupAt); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
