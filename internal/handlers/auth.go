package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/internal/permissions"
	"github.com/panelkit/panelkit/internal/services"
	"github.com/panelkit/panelkit/pkg/crypto"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
	"github.com/panelkit/panelkit/pkg/metrics"
	"github.com/panelkit/panelkit/pkg/response"
)

// DefaultRegistrationRole is assigned to self-registered accounts.
const DefaultRegistrationRole = "user"

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	users    *services.UserService
	roles    *services.RoleService
	sessions *iauth.SessionService
	checker  *permissions.Checker
	audit    *services.AuditService
}

func NewAuthHandler(
	users *services.UserService,
	roles *services.RoleService,
	sessions *iauth.SessionService,
	checker *permissions.Checker,
	audit *services.AuditService,
) *AuthHandler {
	return &AuthHandler{users: users, roles: roles, sessions: sessions, checker: checker, audit: audit}
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type namedRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type userPayload struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Roles       []namedRef `json:"roles"`
	Permissions []namedRef `json:"permissions"`
}

// buildUserPayload flattens the user's roles and effective permission set.
func (h *AuthHandler) buildUserPayload(ctx context.Context, user *models.User) (*userPayload, error) {
	perms, err := h.checker.GetUserPermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	payload := &userPayload{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Roles:       make([]namedRef, 0, len(user.Roles)),
		Permissions: make([]namedRef, 0, len(perms)),
	}
	for _, role := range user.Roles {
		payload.Roles = append(payload.Roles, namedRef{ID: role.ID, Name: role.Name})
	}
	for _, perm := range perms {
		payload.Permissions = append(payload.Permissions, namedRef{ID: perm.ID, Name: perm.Name})
	}
	return payload, nil
}

func (h *AuthHandler) tokenResponse(ctx context.Context, user *models.User, pair *iauth.TokenPair) (gin.H, error) {
	payload, err := h.buildUserPayload(ctx, user)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"user":          payload,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "Bearer",
		"expires_at":    pair.ExpiresAt,
	}, nil
}

// Register creates an account with the default role and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()

	input := services.CreateUserInput{Name: req.Name, Email: req.Email, Password: req.Password}
	role, err := h.roleByName(ctx, DefaultRegistrationRole)
	switch {
	case err == nil:
		input.RoleIDs = []uint{role.ID}
	case errors.Is(err, apperrors.ErrNotFound):
		// The default role was removed by an operator; register without it.
	default:
		response.Error(c, err)
		return
	}

	user, err := h.users.Create(ctx, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, _, err := h.sessions.CreateSession(ctx, user.ID, requestMetadata(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.tokenResponse(ctx, user, pair)
	if err != nil {
		response.Error(c, err)
		return
	}

	entry := auditEntry(c, "auth.register", "user", services.AuditResultSuccess)
	entry.UserID = &user.ID
	h.audit.Record(ctx, entry)

	response.SuccessMessage(c, http.StatusCreated, "Registration successful.", data)
}

// Login verifies credentials and issues a fresh session, revoking any
// previous ones. Unknown accounts and wrong passwords share one message.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			h.audit.Record(ctx, auditEntry(c, "auth.login", "user", services.AuditResultFailure))
			response.Error(c, apperrors.ErrInvalidCredentials)
			return
		}
		response.Error(c, err)
		return
	}

	if !crypto.VerifyPassword(user.Password, req.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		entry := auditEntry(c, "auth.login", "user", services.AuditResultFailure)
		entry.UserID = &user.ID
		h.audit.Record(ctx, entry)
		response.Error(c, apperrors.ErrInvalidCredentials)
		return
	}

	pair, _, err := h.sessions.CreateSession(ctx, user.ID, requestMetadata(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.tokenResponse(ctx, user, pair)
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	entry := auditEntry(c, "auth.login", "user", services.AuditResultSuccess)
	entry.UserID = &user.ID
	h.audit.Record(ctx, entry)

	response.SuccessMessage(c, http.StatusOK, "Login successful.", data)
}

// Me returns the authenticated user with roles and effective permissions.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Get(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, err := h.buildUserPayload(ctx, user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, payload)
}

// Logout revokes the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	if err := h.sessions.RevokeSession(ctx, sessionID); err != nil && !errors.Is(err, iauth.ErrSessionNotFound) {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "auth.logout", "session", services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Logged out.", nil)
}

// Refresh exchanges a refresh token for a new token pair. The rotation
// revokes every other session the user holds.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	pair, session, err := h.sessions.RefreshSession(ctx, req.RefreshToken, requestMetadata(c))
	if err != nil {
		if errors.Is(err, iauth.ErrSessionNotFound) ||
			errors.Is(err, iauth.ErrSessionRevoked) ||
			errors.Is(err, iauth.ErrSessionExpired) {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		response.Error(c, err)
		return
	}

	user, err := h.users.Get(ctx, session.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.tokenResponse(ctx, user, pair)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, http.StatusOK, "Token refreshed.", data)
}

func (h *AuthHandler) roleByName(ctx context.Context, name string) (*models.Role, error) {
	roles, err := h.roles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].Name == name {
			return &roles[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}
