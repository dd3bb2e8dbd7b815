package ports

import (
	"context"
	"errors"
	"time"

	"cafe-pickup-service/internal/domain"
)

// ErrNotFound is returned by lookups and mutations addressing an ID that no
// longer exists in the store.
var ErrNotFound = errors.New("package not found")

// ListQuery selects a page of packages for the staff listing.
// Status and Search are optional; Page is 1-based.
type ListQuery struct {
	Page    int
	PerPage int
	Status  domain.Status
	Search  string
}

// Stats are the staff dashboard counters.
type Stats struct {
	Total            int
	WarehouseArrived int
	CafeArrived      int
	PickedUp         int
	TodayCafeArrived int
}

// Port: the boundary for storing and querying Package entities.
// Each mutating call is one store transaction.
type PackageRepository interface {
	Create(ctx context.Context, pkg *domain.Package) error
	// CreateBatch inserts all packages in a single transaction; on any
	// failure none of them survive.
	CreateBatch(ctx context.Context, pkgs []*domain.Package) error

	GetByID(ctx context.Context, id int64) (*domain.Package, error)
	Update(ctx context.Context, pkg *domain.Package) error
	Delete(ctx context.Context, id int64) error
	// DeleteWhere removes every package matching status ("" matches all)
	// and returns how many rows went away.
	DeleteWhere(ctx context.Context, status domain.Status) (int64, error)

	// List returns one page ordered by cafe arrival descending, nulls
	// last, plus the total match count for pagination metadata.
	List(ctx context.Context, q ListQuery) ([]*domain.Package, int, error)
	ListAll(ctx context.Context) ([]*domain.Package, error)
	ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Package, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.Package, error)
	// ListPendingEmail returns packages at the kind's stage whose sent
	// flag is still false.
	ListPendingEmail(ctx context.Context, kind domain.NotificationKind) ([]*domain.Package, error)

	TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error)
	PickupCodeExists(ctx context.Context, code string) (bool, error)

	// MarkEmailSent sets the kind's sent flag with a fresh field-level
	// update by ID, so it never overwrites concurrent edits with a stale
	// in-memory snapshot.
	MarkEmailSent(ctx context.Context, id int64, kind domain.NotificationKind, at time.Time) error

	Stats(ctx context.Context, now time.Time) (*Stats, error)
}
