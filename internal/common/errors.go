package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConfig       = errors.New("configuration error")
	ErrDatabase     = errors.New("database error")
	ErrNotFound     = errors.New("not found")
)

// Page pipeline errors. Callers classify with errors.Is.
var (
	// ErrFetch means the page image could not be retrieved.
	ErrFetch = errors.New("image fetch failed")
	// ErrDecode means the retrieved bytes are not a decodable image.
	ErrDecode = errors.New("image decode failed")
	// ErrOCR means the OCR engine failed on a decoded image.
	ErrOCR = errors.New("ocr failed")

	// ErrRateLimited is a rate-limit signal from the oracle that did not exhaust the credential pool.
	ErrRateLimited = errors.New("oracle rate limited")
	// ErrCredentialsExhausted is terminal for the rest of a batch.
	ErrCredentialsExhausted = errors.New("oracle credentials exhausted")
	// ErrOracleUnavailable covers network-level and non rate-limit API failures.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrMalformedOutput means the oracle reply held no parsable property list.
	ErrMalformedOutput = errors.New("malformed oracle output")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsTerminal reports whether err must stop all further oracle calls in the current batch.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrCredentialsExhausted)
}
