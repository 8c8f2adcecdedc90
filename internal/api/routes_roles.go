package api

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/handlers"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
)

func registerRoleRoutes(api *gin.RouterGroup, h *handlers.RoleHandler, checker *permissions.Checker) {
	roles := api.Group("/roles")
	{
		roles.GET("/list", middleware.RequirePermission(checker, "role.view"), h.ListAll)
		roles.GET("", middleware.RequirePermission(checker, "role.view"), h.List)
		roles.GET("/:id", middleware.RequirePermission(checker, "role.view"), h.Get)
		roles.POST("", middleware.RequirePermission(checker, "role.create"), h.Create)
		roles.PUT("/:id", middleware.RequirePermission(checker, "role.edit"), h.Update)
		roles.DELETE("/:id", middleware.RequirePermission(checker, "role.delete"), h.Delete)
		roles.POST("/:id/assign-permissions", middleware.RequirePermission(checker, "role.edit"), h.AssignPermissions)
	}
}
