package api

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/handlers"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
)

func registerPermissionRoutes(api *gin.RouterGroup, h *handlers.PermissionHandler, checker *permissions.Checker) {
	perms := api.Group("/permissions")
	{
		perms.GET("/list", middleware.RequirePermission(checker, "permission.view"), h.ListAll)
		perms.GET("/grouped", middleware.RequirePermission(checker, "permission.view"), h.Grouped)
		perms.GET("", middleware.RequirePermission(checker, "permission.view"), h.List)
		perms.GET("/:id", middleware.RequirePermission(checker, "permission.view"), h.Get)
		perms.POST("", middleware.RequirePermission(checker, "permission.create"), h.Create)
		perms.POST("/bulk", middleware.RequirePermission(checker, "permission.create"), h.BulkCreate)
		perms.PUT("/:id", middleware.RequirePermission(checker, "permission.edit"), h.Update)
		perms.DELETE("/:id", middleware.RequirePermission(checker, "permission.delete"), h.Delete)
	}
}
