package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeUpstreamStatus      = "UPSTREAM_STATUS"
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"
	ErrCodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	ErrCodeParse               = "PARSE_FAILED"
	ErrCodeCanceled            = "CANCELED"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// MetadataError is the internal error type carrying an error code.
// Message is safe to show to end users; Err holds the underlying cause
// and is only ever logged.
type MetadataError struct {
	Code    string
	Message string

	// Status and StatusText are set for ErrCodeUpstreamStatus and carry
	// the target's response status for diagnostics.
	Status     int
	StatusText string

	Err error // wrapped original error
}

func (e *MetadataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// NewMetadataError creates a new MetadataError.
func NewMetadataError(code, message string, err error) *MetadataError {
	return &MetadataError{Code: code, Message: message, Err: err}
}

// NewUpstreamStatusError reports a non-2xx answer from the inspected site.
func NewUpstreamStatusError(status int, statusText string) *MetadataError {
	return &MetadataError{
		Code:       ErrCodeUpstreamStatus,
		Message:    "Failed to fetch the URL: " + statusText,
		Status:     status,
		StatusText: statusText,
	}
}

// ToResponse converts an internal error to an API-facing ErrorResponse.
func (e *MetadataError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code}
}
