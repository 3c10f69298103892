package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingFields is returned when a required input field is empty.
	ErrMissingFields = errors.New("all fields are required")
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. Both cases share the error so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned when a user id has no row.
	ErrUserNotFound = errors.New("user not found")
)

// PersistenceError wraps a datastore failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError for op.
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err is or wraps a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse. Details are only
// copied when withDetails is set.
func (e *HTTPError) ToErrorResponse(withDetails bool) ErrorResponse {
	resp := ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
	if withDetails {
		resp.Details = e.Details
	}
	return resp
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrMissingFields):
		return NewHTTPError(http.StatusBadRequest, ErrMissingFields.Error(), "VALIDATION_FAILED")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, ErrEmailTaken.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	}

	var pe *PersistenceError
	if errors.As(err, &pe) {
		httpErr := NewHTTPError(http.StatusInternalServerError, pe.Op+" failed", "PERSISTENCE_ERROR")
		httpErr.Details = pe.Err.Error()
		return httpErr
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
