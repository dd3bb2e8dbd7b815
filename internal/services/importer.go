package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

// The import template's header row. These are an external data contract
// with the operational spreadsheet template; matching is by header text in
// any column order, never by position.
const (
	headerCustomerName   = "客户名称"
	headerTrackingNumber = "快递单号"
	headerCustomerEmail  = "客户邮箱"
	headerNotes          = "备注"
)

const skipReasonDuplicate = "tracking number already exists"

var (
	// ErrBadFileFormat: the upload is not a valid xlsx workbook.
	ErrBadFileFormat = errors.New("file is not a valid xlsx workbook")
	// ErrNoSheet: the workbook opened but holds no readable sheet.
	ErrNoSheet = errors.New("workbook has no readable sheet")
)

// MissingColumnsError is the whole-file validation failure for a header row
// that lacks one or more required template columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// ImportedRow echoes one created row back to the caller.
type ImportedRow struct {
	CustomerName   string `json:"customer_name"`
	TrackingNumber string `json:"tracking_number"`
	Email          string `json:"email"`
	Notes          string `json:"notes"`
}

// SkippedRow is one row the import refused, with the reason.
type SkippedRow struct {
	ImportedRow
	Reason string `json:"reason"`
}

// ImportReport is the outcome of a clean import run.
type ImportReport struct {
	Created int           `json:"created"`
	Rows    []ImportedRow `json:"rows"`
	IDs     []int64       `json:"ids"`
	Skipped []SkippedRow  `json:"skipped"`
}

// Importer turns an uploaded xlsx workbook into package records.
//
// The whole file is one logical unit: rows are parsed and validated first,
// then every creation happens inside a single store transaction, so a
// failure anywhere leaves the store unchanged.
type Importer struct {
	repo ports.PackageRepository
}

func NewImporter(repo ports.PackageRepository) *Importer {
	return &Importer{repo: repo}
}

func (im *Importer) ImportWorkbook(ctx context.Context, r io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, excelize.ErrWorkbookFileFormat) {
			return nil, ErrBadFileFormat
		}
		return nil, fmt.Errorf("import: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("import: read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoSheet
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		Rows:    []ImportedRow{},
		IDs:     []int64{},
		Skipped: []SkippedRow{},
	}

	var pending []*domain.Package
	seenTracking := map[string]struct{}{}
	batchCodes := map[string]struct{}{}

	// a candidate code must be free in the store and unused earlier in
	// this same batch
	codeTaken := func(ctx context.Context, code string) (bool, error) {
		if _, ok := batchCodes[code]; ok {
			return true, nil
		}
		return im.repo.PickupCodeExists(ctx, code)
	}

	now := time.Now().UTC()
	for _, raw := range rows[1:] {
		row := ImportedRow{
			CustomerName:   cellAt(raw, cols.name),
			TrackingNumber: cellAt(raw, cols.tracking),
			Email:          cellAt(raw, cols.email),
			Notes:          cellAt(raw, cols.notes),
		}

		// incomplete rows are skipped silently, not reported
		if row.CustomerName == "" || row.TrackingNumber == "" || row.Email == "" {
			continue
		}

		dup := false
		if _, ok := seenTracking[row.TrackingNumber]; ok {
			dup = true
		} else {
			dup, err = im.repo.TrackingNumberExists(ctx, row.TrackingNumber)
			if err != nil {
				return nil, fmt.Errorf("import: check tracking number %q: %w", row.TrackingNumber, err)
			}
		}
		if dup {
			report.Skipped = append(report.Skipped, SkippedRow{ImportedRow: row, Reason: skipReasonDuplicate})
			continue
		}

		code, err := GeneratePickupCode(ctx, codeTaken)
		if err != nil {
			return nil, fmt.Errorf("import: row %q: %w", row.TrackingNumber, err)
		}
		batchCodes[code] = struct{}{}
		seenTracking[row.TrackingNumber] = struct{}{}

		pending = append(pending, &domain.Package{
			CustomerName:       row.CustomerName,
			CustomerEmail:      row.Email,
			TrackingNumber:     row.TrackingNumber,
			PickupCode:         code,
			Status:             domain.StatusWarehouseArrived,
			WarehouseArrivalAt: now,
			Notes:              row.Notes,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		report.Rows = append(report.Rows, row)
	}

	if len(pending) > 0 {
		if err := im.repo.CreateBatch(ctx, pending); err != nil {
			return nil, fmt.Errorf("import: create packages: %w", err)
		}
	}

	report.Created = len(pending)
	for _, pkg := range pending {
		report.IDs = append(report.IDs, pkg.ID)
	}
	return report, nil
}

type columnIndexes struct {
	name     int
	tracking int
	email    int
	notes    int
}

func resolveColumns(header []string) (columnIndexes, error) {
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	cols := columnIndexes{}
	var missing []string
	for _, want := range []struct {
		header string
		dst    *int
	}{
		{headerCustomerName, &cols.name},
		{headerTrackingNumber, &cols.tracking},
		{headerCustomerEmail, &cols.email},
		{headerNotes, &cols.notes},
	} {
		i, ok := idx[want.header]
		if !ok {
			missing = append(missing, want.header)
			continue
		}
		*want.dst = i
	}
	if len(missing) > 0 {
		return columnIndexes{}, &MissingColumnsError{Columns: missing}
	}
	return cols, nil
}

// Data rows can be ragged; indexes past the row's end read as empty.
func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
