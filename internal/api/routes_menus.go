package api

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/handlers"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
)

func registerMenuRoutes(api *gin.RouterGroup, h *handlers.MenuHandler, checker *permissions.Checker) {
	menus := api.Group("/menus")
	{
		// The caller's own navigation requires authentication only.
		menus.GET("/user", h.UserMenus)

		menus.GET("/tree", middleware.RequirePermission(checker, "menu.view"), h.Tree)
		menus.GET("/list", middleware.RequirePermission(checker, "menu.view"), h.ListFlat)
		menus.GET("", middleware.RequirePermission(checker, "menu.view"), h.List)
		menus.GET("/:id", middleware.RequirePermission(checker, "menu.view"), h.Get)
		menus.POST("", middleware.RequirePermission(checker, "menu.create"), h.Create)
		menus.POST("/reorder", middleware.RequirePermission(checker, "menu.edit"), h.Reorder)
		menus.PUT("/:id", middleware.RequirePermission(checker, "menu.edit"), h.Update)
		menus.DELETE("/:id", middleware.RequirePermission(checker, "menu.delete"), h.Delete)
	}
}
