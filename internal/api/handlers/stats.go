package handlers

import (
	"log"
	"net/http"
	"time"

	"cafe-pickup-service/internal/api/dto"
	"cafe-pickup-service/internal/ports"
)

type StatsHandler struct {
	Repo ports.PackageRepository
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.Repo.Stats(r.Context(), time.Now())
	if err != nil {
		log.Printf("stats query failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.StatsResponse{
		Total:            stats.Total,
		WarehouseArrived: stats.WarehouseArrived,
		CafeArrived:      stats.CafeArrived,
		PickedUp:         stats.PickedUp,
		TodayCafeArrived: stats.TodayCafeArrived,
	})
}
