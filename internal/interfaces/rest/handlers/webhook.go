package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
)

const webhookSecretHeader = "X-Webhook-Secret"

type WebhookRequest struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
}

type WebhookResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// Webhook handles a PSP delivery. Deliveries are at-least-once and
// unordered; terminal conditions (unknown order, uninteresting event) are
// acknowledged with 200 so the PSP stops redelivering, transient failures
// get a 500 so it tries again.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		provided := r.Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
			h.logger.Warn("webhook rejected, bad secret", "remote_addr", r.RemoteAddr)
			rest.WriteJSON(w, http.StatusUnauthorized, WebhookResponse{Success: false, Detail: "invalid secret"})
			return
		}
	}

	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		rest.WriteJSON(w, http.StatusBadRequest, WebhookResponse{Success: false, Detail: "invalid payload"})
		return
	}

	err := h.reconciler.ProcessWebhook(r.Context(), req.OrderID, req.Event)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodeLedgerNotFound) {
			// Not our order. Redelivery cannot fix this.
			h.logger.Info("webhook for unknown order", "external_order_id", req.OrderID)
			rest.WriteJSON(w, http.StatusOK, WebhookResponse{Success: true, Detail: "unknown order"})
			return
		}

		h.logger.Error("webhook processing failed",
			"external_order_id", req.OrderID,
			"event", req.Event,
			"error", err,
		)
		rest.WriteJSON(w, http.StatusInternalServerError, WebhookResponse{Success: false, Detail: "processing failed"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, WebhookResponse{Success: true})
}
