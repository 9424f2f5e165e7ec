package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fatflowers/polaradmin/pkg/logctx"
	"github.com/fatflowers/polaradmin/pkg/tool"
)

const HeaderRequestID = "X-Request-ID"

// TraceMiddleware reads X-Request-ID or generates a UUIDv7 and stores it in
// both gin.Context and the request context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderRequestID)
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}
		c.Set(logctx.GinTraceIDKey, traceID)
		c.Request = c.Request.WithContext(logctx.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}
