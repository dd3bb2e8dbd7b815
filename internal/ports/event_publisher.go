package ports

import (
	"context"
	"time"

	"cafe-pickup-service/internal/domain"
)

// StatusEvent records one applied lifecycle transition for auditing.
type StatusEvent struct {
	PackageID      int64         `json:"package_id"`
	TrackingNumber string        `json:"tracking_number"`
	OldStatus      domain.Status `json:"old_status"`
	NewStatus      domain.Status `json:"new_status"`
	At             time.Time     `json:"at"`
}

// Port: a boundary for publishing audit events. Publishing is best-effort;
// callers log failures and move on.
type EventPublisher interface {
	PublishStatusEvent(ctx context.Context, ev StatusEvent) error
	Close() error
}
