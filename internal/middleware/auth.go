package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/panelkit/panelkit/internal/auth"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
	"github.com/panelkit/panelkit/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
)

// Auth enforces JWT authentication and confirms the backing session is
// still live, so revocation takes effect before the access token expires.
func Auth(jwt *iauth.JWTService, sessions *iauth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.SessionID != "" {
			if _, err := sessions.ValidateSession(c.Request.Context(), claims.SessionID); err != nil {
				if errors.Is(err, iauth.ErrSessionNotFound) ||
					errors.Is(err, iauth.ErrSessionRevoked) ||
					errors.Is(err, iauth.ErrSessionExpired) {
					c.Header("WWW-Authenticate", "Bearer")
					response.Error(c, apperrors.ErrUnauthorized)
					c.Abort()
					return
				}
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
				return
			}

			// Best effort: a failed touch must not reject the request.
			_ = sessions.TouchSession(c.Request.Context(), claims.SessionID)
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}

		c.Next()
	}
}

// UserID extracts the authenticated user id from the request context.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// SessionID extracts the authenticated session id from the request context.
func SessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxSessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
