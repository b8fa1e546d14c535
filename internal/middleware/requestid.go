// requestid.go tags every request with an identifier that ties the access log,
// the response the client saw, and any audit records written during the request
// to one another.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request identifier on the wire.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key the identifier is stored under.
	RequestIDKey = "request_id"
)

// RequestIDMiddleware assigns each request an identifier. An inbound
// X-Request-ID set by the ingress or the main application is reused so one id
// follows the request across services; otherwise a fresh UUID is generated.
// The id is stored in the context for the request logger and echoed in the
// response so a client report can be matched to server-side log lines.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
