package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/security"
)

// Authorizer decides whether the user in ctx may act on a resource.
// *security.Policy implements it.
type Authorizer interface {
	Authorize(ctx context.Context, action security.Action, resource string) error
}

// RequireAction aborts with 401/403 unless the policy allows action on
// resource for the authenticated user. Must run after Auth.
func RequireAction(policy Authorizer, action security.Action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Authorize(c.Request.Context(), action, resource); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
