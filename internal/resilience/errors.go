// Package resilience holds the engine's error taxonomy and the retry helper
// used for transient read failures against remote stores.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ValidationError reports malformed caller input. It always names the
// offending field and is never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// NewValidationError creates a ValidationError for the named field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports that a store no longer holds a record the engine
// referenced. Per-item mutations tolerate it as a no-op.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given record.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// TransportError reports an unreachable store or webhook, or a non-2xx
// response. It aborts the current step and is surfaced to the caller.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError creates a TransportError for an operation.
func NewTransportError(op string, statusCode int, err error) *TransportError {
	return &TransportError{Op: op, StatusCode: statusCode, Err: err}
}

// IsTransport reports whether err wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// DataError reports a response that arrived but did not carry the expected
// shape. It marks the operation failed without crashing the engine.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string { return "data: " + e.Msg }

// NewDataError creates a DataError with the given message.
func NewDataError(msg string) *DataError { return &DataError{Msg: msg} }

// IsData reports whether err wraps a DataError.
func IsData(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// IsTransient reports whether the error matches common transient network
// failure patterns (timeouts, resets, DNS) or a retryable transport status.
// Validation, not-found, and data errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) || IsNotFound(err) || IsData(err) {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) && IsTransientHTTPStatus(te.StatusCode) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
