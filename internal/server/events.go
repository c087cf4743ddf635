package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/smallbiznis/fleetwatch/internal/event/domain"
)

func (s *Server) AppendEvent(c *gin.Context) {
	var req eventdomain.AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, eventdomain.ErrInvalidValue)
		return
	}
	req.DeviceID = c.Param("device_id")

	e, err := s.eventsvc.Append(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event_id": e.ID.String()})
}

func (s *Server) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	events, err := s.eventsvc.List(c.Request.Context(), eventdomain.ListRequest{
		DeviceID:  c.Param("device_id"),
		AccountID: accountID(c),
		Limit:     limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
