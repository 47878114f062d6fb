package handler

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"metro/internal/repository"
	"metro/internal/service"
)

// ErrorResponse is the failure envelope: a success flag plus a message,
// which both the dashboard and the reader firmware expect.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Success: false, Message: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoActiveTrip):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidFingerprintID),
		errors.Is(err, service.ErrInvalidDeviceID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidStation),
		errors.Is(err, service.ErrInvalidFareAmount),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCommandKind),
		errors.Is(err, service.ErrInvalidVerificationKind):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrFingerprintEnrolled),
		errors.Is(err, service.ErrActiveTripExists),
		errors.Is(err, service.ErrTripAlreadyCompleted),
		errors.Is(err, service.ErrScanInProgress),
		errors.Is(err, service.ErrStationExists),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Store unreachable - retryable by the caller
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
