// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request. Wallet addresses are shortened
// before they reach the log.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if address, ok := walletAddress(c); ok {
			fields["wallet"] = address
		}

		entry := logrus.WithFields(fields)
		switch {
		case len(c.Errors) > 0:
			entry.WithError(c.Errors.Last()).Error("Request failed")
		case c.Writer.Status() >= 500:
			entry.Error("Request processed")
		case c.Request.URL.Path == "/health":
			entry.Debug("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
