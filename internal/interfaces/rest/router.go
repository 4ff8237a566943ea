package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest/middleware"
)

// WebhookHandlers is the surface the router needs from the handler bundle.
type WebhookHandlers interface {
	Webhook(w http.ResponseWriter, r *http.Request)
	Checkout(w http.ResponseWriter, r *http.Request)
	Refund(w http.ResponseWriter, r *http.Request)
	Return(w http.ResponseWriter, r *http.Request)
	StatusUpdate(w http.ResponseWriter, r *http.Request)
	GetSetting(w http.ResponseWriter, r *http.Request)
	UpdateSetting(w http.ResponseWriter, r *http.Request)
}

func NewRouter(h WebhookHandlers, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhook", h.Webhook)
	r.Post("/checkout", h.Checkout)
	r.Get("/return/{cartID}", h.Return)
	r.Post("/refunds", h.Refund)
	r.Post("/orders/{orderID}/status", h.StatusUpdate)
	r.Get("/settings/{key}", h.GetSetting)
	r.Put("/settings/{key}", h.UpdateSetting)

	return r
}
