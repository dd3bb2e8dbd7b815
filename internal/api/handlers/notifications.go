package handlers

import (
	"errors"
	"log"
	"net/http"

	"cafe-pickup-service/internal/api/dto"
	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/services"
)

// NotificationHandler exposes bulk email dispatch.
type NotificationHandler struct {
	Dispatcher *services.Dispatcher
}

// Bulk queues the pending emails of one kind and answers with the queued
// count only; delivery happens on the background worker.
func (h *NotificationHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.BulkSendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind := domain.NotificationKind(req.Kind)
	if !domain.ValidNotificationKind(kind) {
		writeError(w, r, http.StatusBadRequest, "invalid notification kind")
		return
	}

	queued, _, err := h.Dispatcher.EnqueuePending(r.Context(), kind)
	if errors.Is(err, services.ErrQueueFull) {
		writeError(w, r, http.StatusServiceUnavailable, "bulk send queue is full, try again later")
		return
	}
	if err != nil {
		log.Printf("bulk send enqueue failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusAccepted, dto.BulkSendResponse{Queued: queued})
}
