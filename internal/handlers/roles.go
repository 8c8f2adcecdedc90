package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/services"
	"github.com/panelkit/panelkit/pkg/response"
)

// RoleHandler exposes the role management endpoints.
type RoleHandler struct {
	roles *services.RoleService
	audit *services.AuditService
}

func NewRoleHandler(roles *services.RoleService, audit *services.AuditService) *RoleHandler {
	return &RoleHandler{roles: roles, audit: audit}
}

type createRoleRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	PermissionIDs []uint `json:"permission_ids"`
}

type updateRoleRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=255"`
	PermissionIDs *[]uint `json:"permission_ids"`
}

type assignPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids" validate:"required"`
}

// List returns a paginated role listing.
func (h *RoleHandler) List(c *gin.Context) {
	input := services.ListRolesInput{
		Pagination: pageInput(c),
		Search:     c.Query("search"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	roles, total, err := h.roles.List(c.Request.Context(), input)
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
	response.SuccessWithMeta(c, http.StatusOK, roles, response.NewMeta(page.Page, page.PerPage, total))
}

// ListAll returns every role, for pick-lists.
func (h *RoleHandler) ListAll(c *gin.Context) {
	roles, err := h.roles.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// Get returns a single role with its permissions.
func (h *RoleHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := h.roles.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// Create adds a new role.
func (h *RoleHandler) Create(c *gin.Context) {
	var req createRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	role, err := h.roles.Create(ctx, services.CreateRoleInput{
		Name:          req.Name,
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "role.create", fmt.Sprintf("role:%d", role.ID), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusCreated, "Role created.", role)
}

// Update modifies an existing role.
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	role, err := h.roles.Update(ctx, id, services.UpdateRoleInput{
		Name:          req.Name,
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "role.update", fmt.Sprintf("role:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Role updated.", role)
}

// Delete removes a role. The bootstrap role is protected.
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.roles.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "role.delete", fmt.Sprintf("role:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Role deleted.", nil)
}

// AssignPermissions replaces a role's permission set.
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req assignPermissionsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.roles.SetPermissions(ctx, id, req.PermissionIDs); err != nil {
		response.Error(c, err)
		return
	}

	role, err := h.roles.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "role.assign_permissions", fmt.Sprintf("role:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Permissions assigned.", role)
}
