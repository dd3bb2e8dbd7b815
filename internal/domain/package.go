package domain

import (
	"net/mail"
	"time"
)

// Status is the lifecycle stage of a package.
// The expected progression is warehouse_arrived -> cafe_arrived -> picked_up.
// The model itself does not forbid moving backward; callers of the status
// operations enforce ordering as a precondition.
type Status string

const (
	StatusWarehouseArrived Status = "warehouse_arrived"
	StatusCafeArrived      Status = "cafe_arrived"
	StatusPickedUp         Status = "picked_up"
)

// ValidStatus reports whether s is a member of the fixed status set.
func ValidStatus(s Status) bool {
	switch s {
	case StatusWarehouseArrived, StatusCafeArrived, StatusPickedUp:
		return true
	}
	return false
}

// NotificationKind selects which stage email a dispatch refers to.
type NotificationKind string

const (
	NotifyWarehouseArrival NotificationKind = "warehouse_arrival"
	NotifyCafeArrival      NotificationKind = "cafe_arrival"
)

func ValidNotificationKind(k NotificationKind) bool {
	return k == NotifyWarehouseArrival || k == NotifyCafeArrival
}

// PickupGracePeriod is how long a package may sit at the cafe before it
// counts as overdue.
const PickupGracePeriod = 7 * 24 * time.Hour

// Represents a single tracked shipment moving through the warehouse and
// the pickup cafe. TrackingNumber and PickupCode are unique across live
// packages; the stage timestamps are set exactly once, the first time the
// package reaches that stage.
type Package struct {
	ID                 int64
	CustomerName       string
	CustomerEmail      string
	TrackingNumber     string
	PickupCode         string
	Status             Status
	WarehouseArrivalAt time.Time
	CafeArrivalAt      *time.Time
	PickupAt           *time.Time
	WarehouseEmailSent bool
	CafeEmailSent      bool
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ApplyStatus moves the package to target and derives the stage timestamps.
// An already-set stage timestamp is never overwritten, so repeated requests
// for the same status are harmless. Every call bumps UpdatedAt.
func (p *Package) ApplyStatus(target Status, now time.Time) {
	p.Status = target
	switch target {
	case StatusCafeArrived:
		if p.CafeArrivalAt == nil {
			t := now
			p.CafeArrivalAt = &t
		}
	case StatusPickedUp:
		if p.PickupAt == nil {
			t := now
			p.PickupAt = &t
		}
	}
	p.UpdatedAt = now
}

// LatestPickupTime is the deadline for collecting the package: cafe arrival
// plus the grace period. Nil until the package has reached the cafe.
func (p *Package) LatestPickupTime() *time.Time {
	if p.CafeArrivalAt == nil {
		return nil
	}
	t := p.CafeArrivalAt.Add(PickupGracePeriod)
	return &t
}

// IsOverdue reports whether the package has sat uncollected past its pickup
// deadline. Pure function of now; recomputed on every read, never stored.
func (p *Package) IsOverdue(now time.Time) bool {
	if p.Status != StatusCafeArrived {
		return false
	}
	deadline := p.LatestPickupTime()
	return deadline != nil && now.After(*deadline)
}

// EmailSent reports the sent flag for the given notification kind.
func (p *Package) EmailSent(kind NotificationKind) bool {
	if kind == NotifyCafeArrival {
		return p.CafeEmailSent
	}
	return p.WarehouseEmailSent
}

// ValidEmail reports whether addr parses as a bare RFC 5322 address.
func ValidEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}
