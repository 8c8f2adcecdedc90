package api

import (
	"gorm.io/gorm"

	iauth "github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/handlers"
	"github.com/panelkit/panelkit/internal/permissions"
	"github.com/panelkit/panelkit/internal/services"
)

// handlerSet bundles the constructed handlers behind the router.
type handlerSet struct {
	health      *handlers.HealthHandler
	auth        *handlers.AuthHandler
	users       *handlers.UserHandler
	roles       *handlers.RoleHandler
	permissions *handlers.PermissionHandler
	menus       *handlers.MenuHandler
}

func newHandlerSet(db *gorm.DB, sessions *iauth.SessionService, checker *permissions.Checker) (*handlerSet, error) {
	userSvc := services.NewUserService(db)
	roleSvc := services.NewRoleService(db)
	permSvc := services.NewPermissionService(db)
	menuSvc := services.NewMenuService(db)
	auditSvc := services.NewAuditService(db)

	return &handlerSet{
		health:      handlers.NewHealthHandler(db),
		auth:        handlers.NewAuthHandler(userSvc, roleSvc, sessions, checker, auditSvc),
		users:       handlers.NewUserHandler(userSvc, checker, auditSvc),
		roles:       handlers.NewRoleHandler(roleSvc, auditSvc),
		permissions: handlers.NewPermissionHandler(permSvc, auditSvc),
		menus:       handlers.NewMenuHandler(menuSvc, checker, auditSvc),
	}, nil
}
