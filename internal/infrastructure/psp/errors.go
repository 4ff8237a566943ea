package psp

import (
	"errors"
	"fmt"
)

type PSPError struct {
	Code       string
	Message    string
	StatusCode int
}

type pspErrorResponse struct {
	Err struct {
		Type    string `json:"type"`
		Value   string `json:"value"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *PSPError) Error() string {
	return fmt.Sprintf("psp error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func IsPSPError(err error) (*PSPError, bool) {
	var pspErr *PSPError
	ok := errors.As(err, &pspErr)
	return pspErr, ok
}
