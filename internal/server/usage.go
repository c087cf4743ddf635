package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/smallbiznis/fleetwatch/internal/usage/domain"
)

func (s *Server) Usage(c *gin.Context) {
	summary, err := s.usagesvc.Usage(c.Request.Context(), usagedomain.UsageRequest{
		DeviceID:  c.Param("device_id"),
		AccountID: accountID(c),
		Range:     c.DefaultQuery("range", "24h"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
