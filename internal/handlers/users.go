package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
	"github.com/panelkit/panelkit/internal/services"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
	"github.com/panelkit/panelkit/pkg/response"
)

// UserHandler exposes the user management endpoints.
type UserHandler struct {
	users   *services.UserService
	checker *permissions.Checker
	audit   *services.AuditService
}

func NewUserHandler(users *services.UserService, checker *permissions.Checker, audit *services.AuditService) *UserHandler {
	return &UserHandler{users: users, checker: checker, audit: audit}
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	RoleIDs  []uint `json:"role_ids"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	RoleIDs  *[]uint `json:"role_ids"`
}

type assignRolesRequest struct {
	RoleIDs []uint `json:"role_ids" validate:"required"`
}

// List returns a paginated user listing with optional search and role filter.
func (h *UserHandler) List(c *gin.Context) {
	input := services.ListUsersInput{
		Pagination: pageInput(c),
		Search:     c.Query("search"),
		Role:       c.Query("role"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	users, total, err := h.users.List(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	page := input.Pagination
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PerPage < 1 {
		page.PerPage = 10
	}
	response.SuccessWithMeta(c, http.StatusOK, users, response.NewMeta(page.Page, page.PerPage, total))
}

// Get returns a single user.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Create adds a new user.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Create(ctx, services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	entry := auditEntry(c, "user.create", fmt.Sprintf("user:%d", user.ID), services.AuditResultSuccess)
	entry.Metadata = map[string]interface{}{"email": user.Email}
	h.audit.Record(ctx, entry)

	response.SuccessMessage(c, http.StatusCreated, "User created.", user)
}

// Update modifies an existing user.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Update(ctx, id, services.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "user.update", fmt.Sprintf("user:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "User updated.", user)
}

// Delete removes a user. Deleting your own account is rejected.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actorID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	if err := h.users.Delete(ctx, id, actorID); err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "user.delete", fmt.Sprintf("user:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "User deleted.", nil)
}

// AssignRoles replaces a user's role set.
func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req assignRolesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.users.SetRoles(ctx, id, req.RoleIDs); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "user.assign_roles", fmt.Sprintf("user:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Roles assigned.", user)
}

// Permissions reports the effective permission set granted to a user.
func (h *UserHandler) Permissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.Get(ctx, id); err != nil {
		response.Error(c, err)
		return
	}

	perms, err := h.checker.GetUserPermissions(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perms)
}

// Export streams the full user list as an XLSX workbook.
func (h *UserHandler) Export(c *gin.Context) {
	data, err := h.users.ExportXLSX(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("users-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
