// backend-go/internal/api/middleware/logger.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	BusinessIDHeader = "X-Business-ID"
	businessIDKey    = "business_id"
)

// Logger is a middleware that logs the request details
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Str("user-agent", c.Request.UserAgent()).
			Str("business_id", c.GetString(businessIDKey)).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request processed")
	}
}

// Recovery recovers from panics and logs the error
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Msg("Recovered from panic")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// BusinessScope requires the X-Business-ID header set by the upstream auth
// layer and stores it on the context.
func BusinessScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID := strings.TrimSpace(c.GetHeader(BusinessIDHeader))
		if businessID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "missing business scope",
				"details": BusinessIDHeader + " header is required",
			})
			return
		}
		c.Set(businessIDKey, businessID)
		c.Next()
	}
}

// BusinessID returns the scope stored by BusinessScope.
func BusinessID(c *gin.Context) string {
	return c.GetString(businessIDKey)
}
