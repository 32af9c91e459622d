package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/types"
)

// RequestLogger logs one structured line per request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Infow("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", types.GetRequestID(c.Request.Context()),
		)
	}
}
