package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/permissions"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
	"github.com/panelkit/panelkit/pkg/metrics"
	"github.com/panelkit/panelkit/pkg/response"
)

// RequirePermission checks that the authenticated user holds the named permission.
func RequirePermission(checker *permissions.Checker, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := checker.Check(c.Request.Context(), userID, permission)
		if err != nil {
			metrics.PermissionChecks.WithLabelValues(permission, "error").Inc()
			response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
			c.Abort()
			return
		}
		if !allowed {
			metrics.PermissionChecks.WithLabelValues(permission, "denied").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.PermissionChecks.WithLabelValues(permission, "allowed").Inc()
		c.Next()
	}
}
