package errors

import (
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Request errors (400xx)
	ErrInvalidRequest ErrorCode = "40001"
	ErrMissingURL     ErrorCode = "40002"
	ErrInvalidURL     ErrorCode = "40003"
	ErrHostNotAllowed ErrorCode = "40004"

	// Authentication errors (401xx)
	ErrMissingAPIKey       ErrorCode = "40101"
	ErrInvalidAPIKeyFormat ErrorCode = "40102"
	ErrInvalidAPIKey       ErrorCode = "40103"
	ErrInvalidPassword     ErrorCode = "40104"
	ErrUnauthorized        ErrorCode = "40105"
	ErrTokenExpired        ErrorCode = "40106"

	// Resource errors (404xx, 409xx)
	ErrNoMedia     ErrorCode = "40401"
	ErrKeyNotFound ErrorCode = "40402"
	ErrKeyExists   ErrorCode = "40901"

	// Upstream errors
	ErrUpstreamTimeout     ErrorCode = "40801"
	ErrUpstreamError       ErrorCode = "50201"
	ErrUpstreamUnavailable ErrorCode = "50301"
	ErrCircuitBreakerOpen  ErrorCode = "50302"
	ErrServiceDisabled     ErrorCode = "50303"

	// Server errors (500xx)
	ErrInternalServer ErrorCode = "50001"
)

// APIError represents a standardized API error
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error carrying a different message
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		HTTPStatus: e.HTTPStatus,
	}
}

// ErrorResponse is the JSON envelope of every failed request
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
}

// NewErrorResponse builds the envelope for an API error
func NewErrorResponse(err *APIError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err.Message,
		Code:      err.Code,
		RequestID: requestID,
	}
}

// Common errors
var (
	ErrMissingURLError = &APIError{
		Code:       ErrMissingURL,
		Message:    "TikTok URL is required",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidURLError = &APIError{
		Code:       ErrInvalidURL,
		Message:    "Invalid TikTok URL format",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrHostNotAllowedError = &APIError{
		Code:       ErrHostNotAllowed,
		Message:    "URL host is not allowed",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingAPIKeyError = &APIError{
		Code:       ErrMissingAPIKey,
		Message:    "API key is required",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidAPIKeyFormatError = &APIError{
		Code:       ErrInvalidAPIKeyFormat,
		Message:    "Invalid API key format",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidAPIKeyError = &APIError{
		Code:       ErrInvalidAPIKey,
		Message:    "Invalid, inactive or expired API key",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidPasswordError = &APIError{
		Code:       ErrInvalidPassword,
		Message:    "Invalid password",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUnauthorizedError = &APIError{
		Code:       ErrUnauthorized,
		Message:    "Admin session required",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpiredError = &APIError{
		Code:       ErrTokenExpired,
		Message:    "Admin session has expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrNoMediaError = &APIError{
		Code:       ErrNoMedia,
		Message:    "No download links found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrKeyNotFoundError = &APIError{
		Code:       ErrKeyNotFound,
		Message:    "API key not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrKeyExistsError = &APIError{
		Code:       ErrKeyExists,
		Message:    "API key already exists",
		HTTPStatus: http.StatusConflict,
	}

	ErrUpstreamTimeoutError = &APIError{
		Code:       ErrUpstreamTimeout,
		Message:    "Request timeout. Please try again.",
		HTTPStatus: http.StatusRequestTimeout,
	}

	ErrUpstreamErrorError = &APIError{
		Code:       ErrUpstreamError,
		Message:    "TikTok API returned an error",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrUpstreamUnavailableError = &APIError{
		Code:       ErrUpstreamUnavailable,
		Message:    "Network error. Please check your connection.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrCircuitBreakerOpenError = &APIError{
		Code:       ErrCircuitBreakerOpen,
		Message:    "Download service temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrServiceDisabledError = &APIError{
		Code:       ErrServiceDisabled,
		Message:    "API service is currently disabled",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrInternalServerError = &APIError{
		Code:       ErrInternalServer,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:       ErrInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUpstreamStatusError mirrors a failed upstream media fetch status
func NewUpstreamStatusError(status int, message string) *APIError {
	return &APIError{
		Code:       ErrUpstreamError,
		Message:    message,
		HTTPStatus: status,
	}
}

// GetHTTPStatusFromCode returns the HTTP status implied by an error code
func GetHTTPStatusFromCode(code ErrorCode) int {
	if len(code) < 3 {
		return http.StatusInternalServerError
	}
	status := 0
	for _, ch := range code[:3] {
		if ch < '0' || ch > '9' {
			return http.StatusInternalServerError
		}
		status = status*10 + int(ch-'0')
	}
	if http.StatusText(status) == "" {
		return http.StatusInternalServerError
	}
	return status
}
