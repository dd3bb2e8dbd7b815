package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"cafe-pickup-service/internal/api/dto"
	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/platform/obs"
	"cafe-pickup-service/internal/services"
)

const maxImportBytes = 16 << 20 // matches the upload form limit

// ImportHandler accepts spreadsheet uploads and the follow-up bulk send for
// freshly imported rows.
type ImportHandler struct {
	Importer   *services.Importer
	Dispatcher *services.Dispatcher
}

func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read upload (max 16MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		writeError(w, r, http.StatusBadRequest, "please upload an .xlsx workbook")
		return
	}

	ctx := r.Context()
	var impErr error
	defer obs.Time(ctx, "import.workbook")(&impErr)

	report, impErr := h.Importer.ImportWorkbook(ctx, file)
	if impErr != nil {
		h.writeImportError(w, r, impErr)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromImportReport(report))
}

// Send delivers warehouse-arrival emails for the IDs an import just
// created. Import batches are small, so unlike /notifications/bulk this
// waits for the job and reports the delivery counts.
func (h *ImportHandler) Send(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ImportSendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "ids is required")
		return
	}

	queued, done, err := h.Dispatcher.EnqueueIDs(r.Context(), domain.NotifyWarehouseArrival, req.IDs)
	if errors.Is(err, services.ErrQueueFull) {
		writeError(w, r, http.StatusServiceUnavailable, "bulk send queue is full, try again later")
		return
	}
	if err != nil {
		log.Printf("import send enqueue failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := <-done
	writeJSON(w, r, http.StatusOK, dto.ImportSendResponse{
		Queued: queued,
		Sent:   res.Sent,
		Failed: res.Failed,
	})
}

func (h *ImportHandler) writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *services.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		writeError(w, r, http.StatusBadRequest, missing.Error())
	case errors.Is(err, services.ErrBadFileFormat):
		writeError(w, r, http.StatusBadRequest, "file is not a valid xlsx workbook")
	case errors.Is(err, services.ErrNoSheet):
		writeError(w, r, http.StatusBadRequest, "workbook has no readable sheet")
	default:
		log.Printf("import failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "import failed: "+err.Error())
	}
}
