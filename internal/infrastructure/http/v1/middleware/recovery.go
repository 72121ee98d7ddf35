// Package middleware provides HTTP middleware for the REPOPA API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/apperror"
	"repopa/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)

				err := apperror.NewInternal(fmt.Errorf("panic: %v", rec))
				_ = c.Error(err)
				c.Abort()
				if !c.Writer.Written() {
					writeError(c, err)
				}
			}
		}()
		c.Next()
	}
}
