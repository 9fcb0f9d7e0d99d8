package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/repository"
	"github.com/AchAffand/SuratJalan-sub001/internal/service"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound       = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized   = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrForbidden      = &Error{Message: "Forbidden", StatusCode: http.StatusForbidden, Code: "FORBIDDEN"}
	ErrConflict       = &Error{Message: "Resource already exists", StatusCode: http.StatusConflict, Code: "CONFLICT"}
)

// WriteError writes an error response
func WriteError(w http.ResponseWriter, err error) {
	var apiError *Error
	if errors.As(err, &apiError) {
		writeJSONResponse(w, apiError.StatusCode, ErrorResponse{
			Message: apiError.Message,
			Code:    apiError.Code,
		})
		return
	}

	// Log unknown errors
	logrus.WithError(err).Error("Unhandled error")
	writeJSONResponse(w, http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}

// WriteServiceError maps service-layer errors to API errors
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateKey):
		WriteError(w, ErrConflict)
	case errors.Is(err, service.ErrValidation):
		WriteError(w, NewValidationError(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, ErrUnauthorized)
	case errors.Is(err, service.ErrAlreadyBootstrapped):
		WriteError(w, ErrConflict)
	default:
		WriteError(w, err)
	}
}

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
	}
}
