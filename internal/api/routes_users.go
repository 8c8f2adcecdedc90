package api

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/handlers"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
)

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler, checker *permissions.Checker) {
	users := api.Group("/users")
	{
		users.GET("", middleware.RequirePermission(checker, "user.view"), h.List)
		users.GET("/export", middleware.RequirePermission(checker, "user.view"), h.Export)
		users.GET("/:id", middleware.RequirePermission(checker, "user.view"), h.Get)
		users.POST("", middleware.RequirePermission(checker, "user.create"), h.Create)
		users.PUT("/:id", middleware.RequirePermission(checker, "user.edit"), h.Update)
		users.DELETE("/:id", middleware.RequirePermission(checker, "user.delete"), h.Delete)
		users.POST("/:id/assign-roles", middleware.RequirePermission(checker, "user.edit"), h.AssignRoles)

		// Permission report requires authentication only.
		users.GET("/:id/permissions", h.Permissions)
	}
}
