package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	"go.uber.org/zap"
)

type heartbeatBody struct {
	Status *string `json:"status,omitempty"`
}

func (s *Server) Heartbeat(c *gin.Context) {
	account := accountID(c)

	if s.limiter.Enabled() {
		allowed, err := s.limiter.Allow(c.Request.Context(), account)
		if err != nil {
			// Redis trouble must not take heartbeats down with it.
			s.log.Warn("heartbeat rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
	}

	// ContentLength is -1 for chunked bodies; only a known-empty body skips
	// binding.
	var body heartbeatBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, devicedomain.ErrInvalidStatus)
			return
		}
	}

	resp, err := s.devicesvc.Heartbeat(c.Request.Context(), devicedomain.HeartbeatRequest{
		DeviceID:  c.Param("device_id"),
		AccountID: account,
		Status:    body.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
