package handlers

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"time"

	"cafe-pickup-service/internal/api/dto"
	"cafe-pickup-service/internal/ports"
	"cafe-pickup-service/internal/services"
)

// QRHandler renders the scannable shortcut to the pickup listing.
type QRHandler struct {
	Repo ports.PackageRepository

	// BaseURL is the fallback public address for requests that carry no
	// host of their own.
	BaseURL string
}

func (h *QRHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	pkgs, err := h.Repo.ListAll(r.Context())
	if err != nil {
		log.Printf("qr listing failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	qr, err := services.BuildPickupQR(pkgs, h.baseURL(r), time.Now())
	if errors.Is(err, services.ErrNoPackages) {
		writeError(w, r, http.StatusNotFound, "no packages to present")
		return
	}
	if err != nil {
		log.Printf("qr encode failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.QRCodeResponse{
		ImageBase64: base64.StdEncoding.EncodeToString(qr.PNG),
		URL:         qr.URL,
		Count:       qr.Count,
		GeneratedAt: qr.GeneratedAt,
	})
}

// The triggering request's own address wins; the configured base URL only
// covers requests without a Host.
func (h *QRHandler) baseURL(r *http.Request) string {
	if r.Host == "" {
		return h.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
