package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and clients use these constants instead of
// hardcoded strings so tests can assert on categories.
//
// An empty suggestion list or a scan with no better options is NOT an error
// and must never be expressed through these codes.
const (
	// Validation (400): caught client-side before any network call.
	ErrCodeValidationMissingPoint   ErrorCode = "validation_missing_point"
	ErrCodeValidationMissingDate    ErrorCode = "validation_missing_date"
	ErrCodeValidationHourWindow     ErrorCode = "validation_hour_window_invalid"
	ErrCodeValidationThreshold      ErrorCode = "validation_threshold_invalid"
	ErrCodeValidationInvalidLat     ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon     ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationMissingField   ErrorCode = "validation_missing_required_field"
	ErrCodeValidationActivityBlank  ErrorCode = "validation_activity_blank"

	// Conflict (409): a command arrived while another of the same kind is
	// still in flight and the component refuses re-entrancy.
	ErrCodeConflictQueryInFlight ErrorCode = "conflict_query_in_flight"
	ErrCodeConflictScanInFlight  ErrorCode = "conflict_scan_in_flight"

	// Not Found (404)
	ErrCodeNotFoundSession ErrorCode = "not_found_session"

	// Upstream (502): the remote service could not be reached, answered with
	// a non-success status or the wrong content type (transport), or answered
	// with a payload that fails shape validation (schema).
	ErrCodeUpstreamTransport   ErrorCode = "upstream_transport_failure"
	ErrCodeUpstreamSchema      ErrorCode = "upstream_schema_invalid"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsUpstream reports whether the code describes a remote-service failure,
// transport or schema alike. Both are surfaced identically to the user apart
// from the message wording.
func (c ErrorCode) IsUpstream() bool {
	return strings.HasPrefix(string(c), "upstream_")
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent formatting, HTTP
// status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AsAppError coerces any error into an *AppError. Errors that are not
// already AppErrors become internal_unexpected_error.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return ae
	}
	return NewAppError(ErrCodeInternalUnexpected, err.Error(), err)
}
