package api

import (
	"net/http"

	"cafe-pickup-service/internal/api/handlers"
	"cafe-pickup-service/internal/ports"
	"cafe-pickup-service/internal/services"
)

// Deps are the wired adapters and services the handlers need.
type Deps struct {
	Repo       ports.PackageRepository
	Notifier   *services.Notifier
	Lifecycle  *services.Lifecycle
	Importer   *services.Importer
	Dispatcher *services.Dispatcher

	// BaseURL is the public address encoded into pickup QR codes. Empty
	// means derive it from the incoming request.
	BaseURL string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	pkgHandler := &handlers.PackageHandler{
		Repo:      deps.Repo,
		Notifier:  deps.Notifier,
		Lifecycle: deps.Lifecycle,
	}
	notifHandler := &handlers.NotificationHandler{Dispatcher: deps.Dispatcher}
	importHandler := &handlers.ImportHandler{
		Importer:   deps.Importer,
		Dispatcher: deps.Dispatcher,
	}
	pickupHandler := &handlers.PickupCodeHandler{Repo: deps.Repo}
	qrHandler := &handlers.QRHandler{Repo: deps.Repo, BaseURL: deps.BaseURL}
	statsHandler := &handlers.StatsHandler{Repo: deps.Repo}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/packages", pkgHandler.Collection)
	mux.HandleFunc("/packages/", pkgHandler.Item)
	mux.HandleFunc("/notifications/bulk", notifHandler.Bulk)
	mux.HandleFunc("/imports", importHandler.Upload)
	mux.HandleFunc("/imports/send", importHandler.Send)
	mux.HandleFunc("/pickup-codes", pickupHandler.List)
	mux.HandleFunc("/qr-code", qrHandler.Get)
	mux.HandleFunc("/stats", statsHandler.Get)

	return requestIDMiddleware(loggingMiddleware(mux))
}
