package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
)

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// GetSetting and UpdateSetting are what an admin configuration screen would
// sit on top of: per-method allow-lists, checkout labels, the manual-capture
// toggle.
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := h.policy.Setting(r.Context(), key)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

func (h *Handlers) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ErrorResponse{
			Success: false,
			Error:   rest.ErrorDetail{Code: "INVALID_PAYLOAD", Message: "invalid json"},
		})
		return
	}

	if err := h.policy.UpdateSetting(r.Context(), key, req.Value); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, SettingResponse{Key: key, Value: req.Value})
}
