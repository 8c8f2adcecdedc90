package api

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/handlers"
)

func registerAuthRoutes(r *gin.Engine, h *handlers.AuthHandler, requireAuth gin.HandlerFunc) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		auth.GET("/me", requireAuth, h.Me)
		auth.POST("/logout", requireAuth, h.Logout)
	}
}
