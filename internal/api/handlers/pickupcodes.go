package handlers

import (
	"log"
	"net/http"
	"time"

	"cafe-pickup-service/internal/api/dto"
	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

// PickupCodeHandler serves the mobile listing of packages waiting at the
// cafe counter.
type PickupCodeHandler struct {
	Repo ports.PackageRepository
}

func (h *PickupCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	pkgs, err := h.Repo.ListByStatus(r.Context(), domain.StatusCafeArrived)
	if err != nil {
		log.Printf("pickup code listing failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now()
	entries := make([]dto.PickupCodeEntry, 0, len(pkgs))
	for _, pkg := range pkgs {
		entries = append(entries, dto.FromPickupPackage(pkg, now))
	}

	writeJSON(w, r, http.StatusOK, dto.PickupCodesResponse{
		Data:        entries,
		Count:       len(entries),
		GeneratedAt: now,
	})
}
