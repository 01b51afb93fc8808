package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripguard/internal/gateway"
	"tripguard/internal/repository"
	"tripguard/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		c.Error(err) // surface to request instrumentation
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var transient *gateway.TransientError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidStrikeType),
		errors.Is(err, service.ErrRefundExceedsCapture):
		return http.StatusBadRequest

	// Payment declined by the processor
	case errors.Is(err, service.ErrPaymentDeclined):
		return http.StatusPaymentRequired

	// Authorization / business-rule denials
	case errors.Is(err, service.ErrPermission),
		errors.Is(err, service.ErrDriverSuspended):
		return http.StatusForbidden

	// Webhook signature rejection
	case errors.Is(err, gateway.ErrInvalidSignature):
		return http.StatusUnauthorized

	// Conflict errors - the request is valid but the current state forbids it
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, service.ErrHoldNotCapturable),
		errors.Is(err, service.ErrHoldNotReleasable),
		errors.Is(err, service.ErrHoldNotRefundable),
		errors.Is(err, service.ErrStaleHold),
		errors.Is(err, service.ErrAlreadyResolved),
		errors.Is(err, service.ErrDuplicateStrike):
		return http.StatusConflict

	// Processor unreachable after retries
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable

	// ErrDesync and everything unexpected: internal server error
	default:
		return http.StatusInternalServerError
	}
}
