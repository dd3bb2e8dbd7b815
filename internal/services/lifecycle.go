package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

var (
	// ErrInvalidStatus rejects a target outside the fixed status set.
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrNotAtWarehouse guards the cafe-arrival operation: only a package
	// still at the warehouse stage may be marked as arrived at the cafe.
	ErrNotAtWarehouse = errors.New("package must be at the warehouse stage first")
)

// Lifecycle validates and applies status transitions and derives the stage
// timestamps. Ordering beyond the cafe-arrival precondition is policy, not
// structure: the generic transition accepts any member of the status set.
type Lifecycle struct {
	repo   ports.PackageRepository
	events ports.EventPublisher
}

func NewLifecycle(repo ports.PackageRepository, events ports.EventPublisher) *Lifecycle {
	return &Lifecycle{repo: repo, events: events}
}

// SetStatus applies the requested target status to the package.
// Stage timestamps are set on first entry only; UpdatedAt always moves.
func (l *Lifecycle) SetStatus(ctx context.Context, id int64, target domain.Status) (*domain.Package, error) {
	if !domain.ValidStatus(target) {
		return nil, ErrInvalidStatus
	}

	pkg, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	old := pkg.Status
	pkg.ApplyStatus(target, time.Now().UTC())

	if err := l.repo.Update(ctx, pkg); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	l.publish(ctx, pkg, old, target)
	return pkg, nil
}

// MarkCafeArrival moves a warehouse-stage package to cafe_arrived.
// Any other current status fails the precondition.
func (l *Lifecycle) MarkCafeArrival(ctx context.Context, id int64) (*domain.Package, error) {
	pkg, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark cafe arrival: %w", err)
	}
	if pkg.Status != domain.StatusWarehouseArrived {
		return nil, ErrNotAtWarehouse
	}

	pkg.ApplyStatus(domain.StatusCafeArrived, time.Now().UTC())
	if err := l.repo.Update(ctx, pkg); err != nil {
		return nil, fmt.Errorf("mark cafe arrival: %w", err)
	}

	l.publish(ctx, pkg, domain.StatusWarehouseArrived, domain.StatusCafeArrived)
	return pkg, nil
}

// Audit publishing is best-effort; a broker hiccup never fails the transition.
func (l *Lifecycle) publish(ctx context.Context, pkg *domain.Package, old, target domain.Status) {
	ev := ports.StatusEvent{
		PackageID:      pkg.ID,
		TrackingNumber: pkg.TrackingNumber,
		OldStatus:      old,
		NewStatus:      target,
		At:             pkg.UpdatedAt,
	}
	if err := l.events.PublishStatusEvent(ctx, ev); err != nil {
		log.Printf("publish status event failed: package_id=%d err=%v", pkg.ID, err)
	}
}
