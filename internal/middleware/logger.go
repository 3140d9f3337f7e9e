package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/medilens/medilens-api/pkg/httputil"
)

// Logger returns a middleware that logs HTTP requests. Bodies are never
// logged since they carry prescription text.
func Logger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		var event *zerolog.Event
		switch {
		case statusCode >= 500:
			event = logger.Error()
		case statusCode >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		event.
			Str("request_id", c.GetString(httputil.ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Int("size", c.Writer.Size()).
			Dur("duration", latency).
			Str("user_agent", c.Request.UserAgent()).
			Msg(statusMessage(statusCode))
	}
}

func statusMessage(status int) string {
	switch {
	case status >= 500:
		return "Server error"
	case status >= 400:
		return "Client error"
	default:
		return "Request processed"
	}
}
