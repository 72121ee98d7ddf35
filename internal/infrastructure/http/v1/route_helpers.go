// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"repopa/internal/core/security"
	"repopa/internal/infrastructure/http/v1/middleware"
)

// RecordRouteHandler defines the interface for record handlers.
// All record handlers must implement these methods.
type RecordRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterRecordRoutes registers standard CRUD routes for a record kind,
// each guarded by the access policy for resource.
//
// Usage:
//
//	handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[...]{...})
//	RegisterRecordRoutes(api.Group("/directors"), handler, cfg.Policy, security.ResourceRecords)
func RegisterRecordRoutes(group *gin.RouterGroup, handler RecordRouteHandler, policy middleware.Authorizer, resource string) {
	group.GET("", middleware.RequireAction(policy, security.ActionRead, resource), handler.List)
	group.POST("", middleware.RequireAction(policy, security.ActionCreate, resource), handler.Create)
	group.GET("/:id", middleware.RequireAction(policy, security.ActionRead, resource), handler.Get)
	group.PUT("/:id", middleware.RequireAction(policy, security.ActionUpdate, resource), handler.Update)
	group.DELETE("/:id", middleware.RequireAction(policy, security.ActionDelete, resource), handler.Delete)
}
