package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/app"
	iauth "github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config, jwt *iauth.JWTService, sessions *iauth.SessionService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}

	checker, err := permissions.NewChecker(db)
	if err != nil {
		return nil, err
	}

	deps, err := newHandlerSet(db, sessions, checker)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	r.NoRoute(middleware.NotFoundHandler)

	// Public endpoints
	r.GET("/health", deps.health.Check)
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	requireAuth := middleware.Auth(jwt, sessions)

	registerAuthRoutes(r, deps.auth, requireAuth)

	api := r.Group("/api")
	api.Use(requireAuth)

	registerUserRoutes(api, deps.users, checker)
	registerRoleRoutes(api, deps.roles, checker)
	registerPermissionRoutes(api, deps.permissions, checker)
	registerMenuRoutes(api, deps.menus, checker)

	return r, nil
}
