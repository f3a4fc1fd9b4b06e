package dto

import "net/http"

// Error codes. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal = "ERR_INTERNAL"
	ErrCodeUnknown  = "ERR_UNKNOWN"
)

// Request error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeUnknownMarketplace is used when a marketplace code does not parse
	ErrCodeUnknownMarketplace = "ERR_UNKNOWN_MARKETPLACE"
	ErrCodePayloadTooLarge    = "ERR_PAYLOAD_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeBusinessRule     = "ERR_BUSINESS_RULE"
	ErrCodeNotSupported     = "ERR_NOT_SUPPORTED"
	ErrCodeNotConfigured    = "ERR_NOT_CONFIGURED"
	ErrCodeMarketplace      = "ERR_MARKETPLACE"
	ErrCodeQueueFull        = "ERR_QUEUE_FULL"
	ErrCodeRateLimited      = "ERR_RATE_LIMITED"
	ErrCodeSchedulerStopped = "ERR_SCHEDULER_STOPPED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeUnknown:  http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeUnknownMarketplace: http.StatusBadRequest,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
	ErrCodeNotSupported:     http.StatusUnprocessableEntity,
	ErrCodeNotConfigured:    http.StatusUnprocessableEntity,
	ErrCodeMarketplace:      http.StatusBadGateway,
	ErrCodeQueueFull:        http.StatusServiceUnavailable,
	ErrCodeSchedulerStopped: http.StatusServiceUnavailable,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// legacyCodes maps shared.DomainError codes to API codes
var legacyCodes = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INVALID_STATE":  ErrCodeBusinessRule,
	"UNAUTHORIZED":   ErrCodeUnauthorized,
	"FORBIDDEN":      ErrCodeForbidden,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if c, ok := legacyCodes[code]; ok {
		return c
	}
	return code
}
