package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilens/medilens-api/pkg/httputil"
)

const HeaderXRequestID = "X-Request-ID"

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if request ID exists in header
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" || len(rid) > 64 {
			rid = uuid.New().String()
		}

		c.Set(httputil.ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
