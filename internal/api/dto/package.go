package dto

import (
	"time"

	"cafe-pickup-service/internal/domain"
)

type PackageResponse struct {
	ID                 int64      `json:"id"`
	CustomerName       string     `json:"customer_name"`
	CustomerEmail      string     `json:"customer_email"`
	TrackingNumber     string     `json:"tracking_number"`
	PickupCode         string     `json:"pickup_code"`
	Status             string     `json:"status"`
	WarehouseArrivalAt time.Time  `json:"warehouse_arrival_at"`
	CafeArrivalAt      *time.Time `json:"cafe_arrival_at"`
	PickupAt           *time.Time `json:"pickup_at"`
	WarehouseEmailSent bool       `json:"warehouse_email_sent"`
	CafeEmailSent      bool       `json:"cafe_email_sent"`
	Notes              string     `json:"notes"`
	LatestPickupTime   *time.Time `json:"latest_pickup_time"`
	IsOverdue          bool       `json:"is_overdue"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// FromPackage flattens the entity plus its derived properties, computed
// against now (overdue is never stored, so it is computed per response).
func FromPackage(pkg *domain.Package, now time.Time) PackageResponse {
	return PackageResponse{
		ID:                 pkg.ID,
		CustomerName:       pkg.CustomerName,
		CustomerEmail:      pkg.CustomerEmail,
		TrackingNumber:     pkg.TrackingNumber,
		PickupCode:         pkg.PickupCode,
		Status:             string(pkg.Status),
		WarehouseArrivalAt: pkg.WarehouseArrivalAt,
		CafeArrivalAt:      pkg.CafeArrivalAt,
		PickupAt:           pkg.PickupAt,
		WarehouseEmailSent: pkg.WarehouseEmailSent,
		CafeEmailSent:      pkg.CafeEmailSent,
		Notes:              pkg.Notes,
		LatestPickupTime:   pkg.LatestPickupTime(),
		IsOverdue:          pkg.IsOverdue(now),
		CreatedAt:          pkg.CreatedAt,
		UpdatedAt:          pkg.UpdatedAt,
	}
}

type ListPackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
	Total    int               `json:"total"`
}

type CreatePackageRequest struct {
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

type CreatePackageResponse struct {
	Package   PackageResponse `json:"package"`
	EmailSent bool            `json:"email_sent"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CafeArrivalResponse struct {
	Package   PackageResponse `json:"package"`
	EmailSent bool            `json:"email_sent"`
}

type BulkDeleteRequest struct {
	Confirm string `json:"confirm"`
	Status  string `json:"status"`
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
