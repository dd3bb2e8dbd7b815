package dto

import (
	"time"

	"cafe-pickup-service/internal/domain"
)

// Short display format for the mobile listing, in the shop's timezone.
const pickupTimeFormat = "01-02 15:04"

type PickupCodeEntry struct {
	ID               int64  `json:"id"`
	PickupCode       string `json:"pickup_code"`
	CustomerName     string `json:"customer_name"`
	TrackingNumber   string `json:"tracking_number"`
	CafeArrivalAt    string `json:"cafe_arrival_at"`
	LatestPickupTime string `json:"latest_pickup_time"`
	IsOverdue        bool   `json:"is_overdue"`
}

type PickupCodesResponse struct {
	Data        []PickupCodeEntry `json:"data"`
	Count       int               `json:"count"`
	GeneratedAt time.Time         `json:"generated_at"`
}

func FromPickupPackage(pkg *domain.Package, now time.Time) PickupCodeEntry {
	e := PickupCodeEntry{
		ID:             pkg.ID,
		PickupCode:     pkg.PickupCode,
		CustomerName:   pkg.CustomerName,
		TrackingNumber: pkg.TrackingNumber,
		IsOverdue:      pkg.IsOverdue(now),
	}
	if pkg.CafeArrivalAt != nil {
		e.CafeArrivalAt = domain.ToDisplayTime(*pkg.CafeArrivalAt).Format(pickupTimeFormat)
	}
	if deadline := pkg.LatestPickupTime(); deadline != nil {
		e.LatestPickupTime = domain.ToDisplayTime(*deadline).Format(pickupTimeFormat)
	}
	return e
}

type QRCodeResponse struct {
	ImageBase64 string    `json:"image_base64"`
	URL         string    `json:"url"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generated_at"`
}

type StatsResponse struct {
	Total            int `json:"total"`
	WarehouseArrived int `json:"warehouse_arrived"`
	CafeArrived      int `json:"cafe_arrived"`
	PickedUp         int `json:"picked_up"`
	TodayCafeArrived int `json:"today_cafe_arrived"`
}
