package dto

import "net/http"

// Domain error codes. These are the shared.DomainError codes verbatim, so a
// domain error can be rendered without translation.
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeExpiredItem         = "EXPIRED_ITEM"
	ErrCodeConflictRetryable   = "CONFLICT_RETRYABLE"
	ErrCodeStorageFailure      = "STORAGE_FAILURE"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
)

// Transport error codes that have no domain counterpart
const (
	// ErrCodeForbidden is used when the caller lacks access
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when the body is not valid JSON
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeRequestInProgress is used when an Idempotency-Key is still being processed
	ErrCodeRequestInProgress = "REQUEST_IN_PROGRESS"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeServiceUnavailable is used when a dependency is down
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeExpiredItem:         http.StatusUnprocessableEntity,
	ErrCodeConflictRetryable:   http.StatusConflict,
	ErrCodeStorageFailure:      http.StatusServiceUnavailable,
	ErrCodeUnauthorized:        http.StatusUnauthorized,

	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeRequestInProgress:  http.StatusConflict,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a client may safely resend the same request
func IsRetryable(code string) bool {
	switch code {
	case ErrCodeConflictRetryable, ErrCodeStorageFailure, ErrCodeServiceUnavailable:
		return true
	}
	return false
}
