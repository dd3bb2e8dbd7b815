package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cafe-pickup-service/internal/api/dto"
	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
	"cafe-pickup-service/internal/services"
)

const defaultPerPage = 20

// The literal a bulk delete must carry; anything else deletes nothing.
const bulkDeleteConfirmPhrase = "DELETE ALL"

// PackageHandler exposes the package CRUD surface.
type PackageHandler struct {
	Repo      ports.PackageRepository
	Notifier  *services.Notifier
	Lifecycle *services.Lifecycle
}

// Collection routes /packages: list, manual create, guarded bulk delete.
func (h *PackageHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodDelete:
		h.bulkDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Item routes /packages/{id} and its sub-resources.
func (h *PackageHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/packages/")
	parts := strings.SplitN(rest, "/", 2)

	id, ok := parseID(parts[0])
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid package ID")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch parts[1] {
	case "status":
		h.updateStatus(w, r, id)
	case "cafe-arrival":
		h.cafeArrival(w, r, id)
	case "emails":
		h.sendEmail(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (h *PackageHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	status := domain.Status(q.Get("status"))
	if status != "" && !domain.ValidStatus(status) {
		writeError(w, r, http.StatusBadRequest, "invalid status filter")
		return
	}

	pkgs, total, err := h.Repo.List(r.Context(), ports.ListQuery{
		Page:    page,
		PerPage: defaultPerPage,
		Status:  status,
		Search:  strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		log.Printf("list packages failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now().UTC()
	res := dto.ListPackagesResponse{
		Packages: make([]dto.PackageResponse, 0, len(pkgs)),
		Page:     page,
		PerPage:  defaultPerPage,
		Total:    total,
	}
	for _, pkg := range pkgs {
		res.Packages = append(res.Packages, dto.FromPackage(pkg, now))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *PackageHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePackageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
	req.Notes = strings.TrimSpace(req.Notes)

	var problems []string
	if req.CustomerName == "" {
		problems = append(problems, "customer name is required")
	}
	switch {
	case req.CustomerEmail == "":
		problems = append(problems, "customer email is required")
	case !domain.ValidEmail(req.CustomerEmail):
		problems = append(problems, "customer email is not a valid address")
	}
	if req.TrackingNumber == "" {
		problems = append(problems, "tracking number is required")
	}
	if len(problems) > 0 {
		writeError(w, r, http.StatusBadRequest, strings.Join(problems, "; "))
		return
	}

	ctx := r.Context()

	exists, err := h.Repo.TrackingNumberExists(ctx, req.TrackingNumber)
	if err != nil {
		log.Printf("tracking number check failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if exists {
		writeError(w, r, http.StatusConflict, "tracking number already exists")
		return
	}

	code, err := services.GeneratePickupCode(ctx, h.Repo.PickupCodeExists)
	if err != nil {
		if errors.Is(err, services.ErrCodeExhausted) {
			writeError(w, r, http.StatusConflict, "could not generate a unique pickup code, please retry")
			return
		}
		log.Printf("pickup code generation failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now().UTC()
	pkg := &domain.Package{
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		TrackingNumber:     req.TrackingNumber,
		PickupCode:         code,
		Status:             domain.StatusWarehouseArrived,
		WarehouseArrivalAt: now,
		Notes:              req.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.Repo.Create(ctx, pkg); err != nil {
		// unique-constraint losers land here too
		log.Printf("create package failed: %v", err)
		writeError(w, r, http.StatusConflict, "could not create package")
		return
	}

	// creation already succeeded; the email outcome only annotates the response
	emailSent := h.Notifier.Send(ctx, pkg, domain.NotifyWarehouseArrival)
	if emailSent {
		pkg.WarehouseEmailSent = true
	}

	writeJSON(w, r, http.StatusCreated, dto.CreatePackageResponse{
		Package:   dto.FromPackage(pkg, now),
		EmailSent: emailSent,
	})
}

func (h *PackageHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	pkg, err := h.Repo.GetByID(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "package not found")
		return
	}
	if err != nil {
		log.Printf("get package failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromPackage(pkg, time.Now().UTC()))
}

func (h *PackageHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	err := h.Repo.Delete(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "package not found")
		return
	}
	if err != nil {
		log.Printf("delete package failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PackageHandler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Confirm != bulkDeleteConfirmPhrase {
		writeError(w, r, http.StatusBadRequest,
			`confirmation phrase mismatch: send "DELETE ALL" to confirm`)
		return
	}

	status := domain.Status(req.Status)
	if status != "" && !domain.ValidStatus(status) {
		writeError(w, r, http.StatusBadRequest, "invalid status filter")
		return
	}

	deleted, err := h.Repo.DeleteWhere(r.Context(), status)
	if err != nil {
		log.Printf("bulk delete failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted})
}

func (h *PackageHandler) updateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pkg, err := h.Lifecycle.SetStatus(r.Context(), id, domain.Status(req.Status))
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		writeError(w, r, http.StatusBadRequest, "invalid status value")
		return
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "package not found")
		return
	case err != nil:
		log.Printf("update status failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromPackage(pkg, time.Now().UTC()))
}

func (h *PackageHandler) cafeArrival(w http.ResponseWriter, r *http.Request, id int64) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	pkg, err := h.Lifecycle.MarkCafeArrival(ctx, id)
	switch {
	case errors.Is(err, services.ErrNotAtWarehouse):
		writeError(w, r, http.StatusConflict, "package must be at the warehouse stage first")
		return
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "package not found")
		return
	case err != nil:
		log.Printf("cafe arrival failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	emailSent := h.Notifier.Send(ctx, pkg, domain.NotifyCafeArrival)
	if emailSent {
		pkg.CafeEmailSent = true
	}

	writeJSON(w, r, http.StatusOK, dto.CafeArrivalResponse{
		Package:   dto.FromPackage(pkg, time.Now().UTC()),
		EmailSent: emailSent,
	})
}

// Manual single (re)send. Unlike bulk dispatch this deliberately ignores the
// sent flag, so staff can resend after a bounced or lost email.
func (h *PackageHandler) sendEmail(w http.ResponseWriter, r *http.Request, id int64) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.SendEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind := domain.NotificationKind(req.Kind)
	if !domain.ValidNotificationKind(kind) {
		writeError(w, r, http.StatusBadRequest, "invalid notification kind")
		return
	}

	ctx := r.Context()
	pkg, err := h.Repo.GetByID(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "package not found")
		return
	}
	if err != nil {
		log.Printf("get package failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	sent := h.Notifier.Send(ctx, pkg, kind)
	writeJSON(w, r, http.StatusOK, dto.SendEmailResponse{EmailSent: sent})
}
