package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"threat-monitor/internal/logging"
)

// RequestLoggingMiddleware logs one line per request with the outcome and
// latency.
func RequestLoggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		logger.Infof("%s %s from %s -> %d in %v",
			method, path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}
