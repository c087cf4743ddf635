package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fleetwatch/internal/authorization"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	// Same response whether the device is missing or owned by someone
	// else; non-owners cannot probe for existence.
	case errors.Is(err, authorization.ErrNotAuthorized):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "device not found or access denied",
		}

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "missing or invalid account identity",
		}

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "heartbeat rate limit exceeded",
		}

	case errors.Is(err, eventdomain.ErrInvalidKind),
		errors.Is(err, eventdomain.ErrInvalidValue),
		errors.Is(err, devicedomain.ErrInvalidStatus),
		errors.Is(err, devicedomain.ErrInvalidDevice),
		errors.Is(err, devicedomain.ErrInvalidAccount),
		errors.Is(err, eventdomain.ErrInvalidDevice),
		errors.Is(err, eventdomain.ErrInvalidAccount):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "temporary failure, retry later",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
