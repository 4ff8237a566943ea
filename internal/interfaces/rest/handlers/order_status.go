package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
)

type ReturnResponse struct {
	ExternalOrderID string `json:"external_order_id"`
	Status          string `json:"status"`
}

// Return is where the shopper lands after paying. It reconciles against the
// live order and reports the outcome so the storefront can render a success
// or failure page.
func (h *Handlers) Return(w http.ResponseWriter, r *http.Request) {
	cartID, err := strconv.ParseInt(chi.URLParam(r, "cartID"), 10, 64)
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "invalid cart id"},
		})
		return
	}

	snapshot, err := h.reconciler.ProcessReturn(r.Context(), cartID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, ReturnResponse{
		ExternalOrderID: snapshot.ID,
		Status:          string(snapshot.Status),
	})
}

type StatusUpdateRequest struct {
	Status domain.LocalStatus `json:"status"`
}

// StatusUpdate is the host order system telling us it changed an order on
// its own (shipped it, canceled it, accepted payment manually) so the
// capture or void that transition calls for gets issued.
func (h *Handlers) StatusUpdate(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "invalid order id"},
		})
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "status is required"},
		})
		return
	}

	if err := h.reconciler.HandleStatusUpdate(r.Context(), orderID, req.Status); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
