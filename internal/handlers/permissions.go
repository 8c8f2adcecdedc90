package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/services"
	"github.com/panelkit/panelkit/pkg/response"
)

// PermissionHandler exposes the permission catalogue endpoints.
type PermissionHandler struct {
	permissions *services.PermissionService
	audit       *services.AuditService
}

func NewPermissionHandler(permissions *services.PermissionService, audit *services.AuditService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions, audit: audit}
}

type permissionRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type bulkPermissionsRequest struct {
	Names []string `json:"names" validate:"required,min=1,dive,required,max=255"`
}

// List returns a paginated permission listing with optional group filter.
func (h *PermissionHandler) List(c *gin.Context) {
	input := services.ListPermissionsInput{
		Pagination: pageInput(c),
		Search:     c.Query("search"),
		Group:      c.Query("group"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	perms, total, err := h.permissions.List(c.Request.Context(), input)
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
	response.SuccessWithMeta(c, http.StatusOK, perms, response.NewMeta(page.Page, page.PerPage, total))
}

// ListAll returns every permission, for pick-lists.
func (h *PermissionHandler) ListAll(c *gin.Context) {
	perms, err := h.permissions.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perms)
}

// Grouped buckets the catalogue by name prefix.
func (h *PermissionHandler) Grouped(c *gin.Context) {
	groups, err := h.permissions.Grouped(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, groups)
}

// Get returns a single permission.
func (h *PermissionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	perm, err := h.permissions.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, perm)
}

// Create adds a new permission.
func (h *PermissionHandler) Create(c *gin.Context) {
	var req permissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	perm, err := h.permissions.Create(ctx, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "permission.create", fmt.Sprintf("permission:%d", perm.ID), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusCreated, "Permission created.", perm)
}

// BulkCreate inserts any missing permissions from the supplied names and
// reports which already existed.
func (h *PermissionHandler) BulkCreate(c *gin.Context) {
	var req bulkPermissionsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	result, err := h.permissions.BulkCreate(ctx, req.Names)
	if err != nil {
		response.Error(c, err)
		return
	}

	entry := auditEntry(c, "permission.bulk_create", "permission", services.AuditResultSuccess)
	entry.Metadata = map[string]interface{}{
		"created": len(result.Created),
		"skipped": len(result.Skipped),
	}
	h.audit.Record(ctx, entry)

	response.SuccessMessage(c, http.StatusCreated, "Permissions created.", result)
}

// Update renames a permission.
func (h *PermissionHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req permissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	perm, err := h.permissions.Update(ctx, id, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "permission.update", fmt.Sprintf("permission:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Permission updated.", perm)
}

// Delete removes a permission from the catalogue and all roles.
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.permissions.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "permission.delete", fmt.Sprintf("permission:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Permission deleted.", nil)
}
