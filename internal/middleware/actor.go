// actor.go bridges the authenticated request to the audit trail: it packages the
// user identity set by AuthMiddleware with the client address and user agent into
// an audit.Actor that handlers pass to the services they call.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/portfolio-cms/portfolio-cms/internal/audit"
)

// ActorKey is the gin.Context key under which the audit.Actor is stored.
const ActorKey = "actor"

// ActorMiddleware builds the audit actor for the request. Must run after
// AuthMiddleware so the user id is available.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := audit.Actor{
			ID:            c.GetString(UserIDKey),
			ClientAddress: c.ClientIP(),
			ClientAgent:   c.Request.UserAgent(),
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor retrieves the audit actor from the request context. Returns a zero
// actor when ActorMiddleware did not run, so audit records degrade to anonymous
// rather than panicking.
func GetActor(c *gin.Context) audit.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(audit.Actor); ok {
			return actor
		}
	}
	return audit.Actor{}
}
