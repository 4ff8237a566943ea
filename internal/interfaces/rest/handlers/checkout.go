package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
)

type CheckoutRequest struct {
	Method string      `json:"method"`
	Cart   domain.Cart `json:"cart"`
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "invalid json"},
		})
		return
	}
	if req.Method == "" || req.Cart.ID == 0 || len(req.Cart.Lines) == 0 {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "method, cart id and lines are required"},
		})
		return
	}

	result, err := h.checkout.Checkout(r.Context(), &req.Cart, req.Method)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, result)
}
