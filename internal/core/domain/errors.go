package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeLedgerNotFound        = "LEDGER_NOT_FOUND"
	ErrCodeDuplicateCart         = "DUPLICATE_CART"
	ErrCodeNotRefundable         = "NOT_REFUNDABLE"
	ErrCodeRefundRequiresCapture = "REFUND_REQUIRES_CAPTURE"
	ErrCodeRefundFailed          = "REFUND_FAILED"
	ErrCodeConfiguration         = "CONFIGURATION_ERROR"
	ErrCodeMethodNotAvailable    = "METHOD_NOT_AVAILABLE"
	ErrCodeCheckoutRejected      = "CHECKOUT_REJECTED"
)

// IsErrorCode reports whether err is a DomainError carrying the given code.
func IsErrorCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

func NewOrderNotFoundError(orderID int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("no payment order recorded for order %d", orderID),
	}
}

func NewLedgerNotFoundError(key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeLedgerNotFound,
		Message: fmt.Sprintf("no ledger entry for %s", key),
	}
}

func NewDuplicateCartError(cartID int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateCart,
		Message: fmt.Sprintf("cart %d already has a ledger entry", cartID),
	}
}

func NewNotRefundableError(method string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotRefundable,
		Message: fmt.Sprintf("%s: only completed orders can be refunded", method),
	}
}

func NewRefundRequiresCaptureError(method string) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundRequiresCapture,
		Message: fmt.Sprintf("%s: refunds only possible when captured", method),
	}
}

// NewRefundFailedError surfaces a failed refund. customerMessage is the
// PSP-supplied text when present, otherwise the caller gets a generic one.
func NewRefundFailedError(method, customerMessage string) *DomainError {
	msg := customerMessage
	if msg == "" {
		msg = "refund order is not completed"
	}
	return &DomainError{
		Code:    ErrCodeRefundFailed,
		Message: fmt.Sprintf("%s: %s", method, msg),
	}
}

func NewConfigurationError(key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf("required setting %s is not configured", key),
	}
}

func NewMethodNotAvailableError(method, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMethodNotAvailable,
		Message: fmt.Sprintf("%s is not available: %s", method, reason),
	}
}

func NewCheckoutRejectedError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeCheckoutRejected,
		Message: message,
	}
}
