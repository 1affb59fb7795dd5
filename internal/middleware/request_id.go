package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xxxsen/common/trace"
)

const (
	ContextRequestIDKey = "request_id"
	HeaderRequestID     = "X-Request-Id"

	maxRequestIDLength = 64
)

// RequestID echoes the trace id installed by the webapi trace middleware, so the
// id returned to the editor is the one logutil tags on every log line of the
// request. Ids a client supplies that are too long or carry characters outside
// [A-Za-z0-9._-] are replaced before they reach the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqID, ok := trace.GetTraceId(ctx)
		if !ok || !validRequestID(reqID) {
			reqID = uuid.NewString()
			c.Request = c.Request.WithContext(trace.WithTraceId(ctx, reqID))
		}
		c.Header(HeaderRequestID, reqID)
		c.Set(ContextRequestIDKey, reqID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
