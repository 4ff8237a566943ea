package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nopayn/psp-bridge/internal/core/domain"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToHTTPStatus maps domain error codes to HTTP status codes. Anything that
// is not a DomainError is an internal error.
func ToHTTPStatus(err error) int {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}

	switch de.Code {
	case domain.ErrCodeOrderNotFound, domain.ErrCodeLedgerNotFound:
		return http.StatusNotFound
	case domain.ErrCodeDuplicateCart:
		return http.StatusConflict
	case domain.ErrCodeMethodNotAvailable,
		domain.ErrCodeCheckoutRejected,
		domain.ErrCodeNotRefundable,
		domain.ErrCodeRefundRequiresCapture:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeConfiguration:
		return http.StatusBadRequest
	case domain.ErrCodeRefundFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func ToErrorCode(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL_ERROR"
}

// WriteError maps a service error onto an HTTP error response.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := ToHTTPStatus(err)
	if statusCode == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    ToErrorCode(err),
			Message: err.Error(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteJSON writes a success payload.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
