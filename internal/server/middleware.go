package server

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fleetwatch/internal/config"
)

// HeaderAccount carries the verified caller account id. The identity
// boundary in front of this service authenticates the caller; the core
// trusts the header unconditionally.
const HeaderAccount = "X-Account-ID"

const ctxAccountKey = "account_id"

// AccountMiddleware rejects requests without a caller identity.
func AccountMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := strings.TrimSpace(c.GetHeader(HeaderAccount))
		if accountID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(ctxAccountKey, accountID)
		c.Next()
	}
}

func accountID(c *gin.Context) string {
	return c.GetString(ctxAccountKey)
}

// TimeoutMiddleware bounds every request by the configured deadline so a
// stuck store call fails with a transient error instead of hanging the
// caller.
func TimeoutMiddleware(cfg config.Config) gin.HandlerFunc {
	timeout := cfg.RequestTimeout
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
