package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeUnreachableSource ErrorType = "unreachable_source"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeUnsupportedMedia  ErrorType = "unsupported_media"
	ErrorTypeModelUnavailable  ErrorType = "model_unavailable"
	ErrorTypeModelLoad         ErrorType = "model_load"
	ErrorTypeInvalidParameter  ErrorType = "invalid_parameter"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`

	// Model resolution context, set for model_unavailable errors so the
	// caller can remediate without reading server logs.
	MissingRoles  []string          `json:"missing_roles,omitempty"`
	ExpectedPaths map[string]string `json:"expected_paths,omitempty"`
	Remediation   string            `json:"remediation,omitempty"`

	// Parameter is the name of the offending input for invalid_parameter errors.
	Parameter string `json:"parameter,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewUnreachableSourceError creates an error for a failed remote fetch
func NewUnreachableSourceError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnreachableSource,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewNotFoundError creates an error for an absent local path
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewUnsupportedMediaError creates an error for undecodable media bytes
func NewUnsupportedMediaError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnsupportedMedia,
		Message:    message,
		StatusCode: http.StatusUnsupportedMediaType,
		Cause:      cause,
	}
}

// NewModelUnavailableError creates an error for missing model artifacts.
// missingRoles names the absent artifact roles and expectedPaths maps every
// required role to the path the registry looked for.
func NewModelUnavailableError(message string, missingRoles []string, expectedPaths map[string]string) *AppError {
	return &AppError{
		Type:          ErrorTypeModelUnavailable,
		Message:       message,
		StatusCode:    http.StatusServiceUnavailable,
		MissingRoles:  missingRoles,
		ExpectedPaths: expectedPaths,
		Remediation:   "place the missing model files under the configured MODEL_ROOT directory",
	}
}

// NewModelLoadError creates an error for a present but unloadable model artifact
func NewModelLoadError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeModelLoad,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInvalidParameterError creates an error for an out-of-range caller parameter
func NewInvalidParameterError(parameter, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidParameter,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Parameter:  parameter,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
