package ctxmanage

import (
	"github.com/gin-gonic/gin"
)

// TraceIDKey is where the per-request trace id lives inside the gin context.
// The Logger middleware sets it for every request.
const TraceIDKey = "trace_id"

func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Value(TraceIDKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}
