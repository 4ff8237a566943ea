package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
)

type RefundRequest struct {
	CartID int64 `json:"cart_id"`
	// Amount is major currency units, the way the credit slip records it.
	Amount float64 `json:"amount"`
}

type RefundResponse struct {
	Success bool `json:"success"`
}

func (h *Handlers) Refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CartID == 0 || req.Amount <= 0 {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "cart_id and a positive amount are required"},
		})
		return
	}

	if err := h.refund.Refund(r.Context(), req.CartID, req.Amount); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, RefundResponse{Success: true})
}
