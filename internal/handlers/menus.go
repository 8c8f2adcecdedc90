package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/permissions"
	"github.com/panelkit/panelkit/internal/services"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
	"github.com/panelkit/panelkit/pkg/response"
)

// MenuHandler exposes the navigation menu endpoints.
type MenuHandler struct {
	menus   *services.MenuService
	checker *permissions.Checker
	audit   *services.AuditService
}

func NewMenuHandler(menus *services.MenuService, checker *permissions.Checker, audit *services.AuditService) *MenuHandler {
	return &MenuHandler{menus: menus, checker: checker, audit: audit}
}

type createMenuRequest struct {
	Title          string `json:"title" validate:"required,max=255"`
	Icon           string `json:"icon" validate:"omitempty,max=255"`
	To             string `json:"to" validate:"omitempty,max=255"`
	Href           string `json:"href" validate:"omitempty,max=2048"`
	Target         string `json:"target" validate:"omitempty,oneof=_self _blank"`
	ParentID       *uint  `json:"parent_id"`
	Order          int    `json:"order"`
	IsSectionTitle bool   `json:"is_section_title"`
	IsActive       *bool  `json:"is_active"`
	Permission     string `json:"permission" validate:"omitempty,max=255"`
	RoleIDs        []uint `json:"role_ids"`
}

type updateMenuRequest struct {
	Title          *string `json:"title" validate:"omitempty,max=255"`
	Icon           *string `json:"icon" validate:"omitempty,max=255"`
	To             *string `json:"to" validate:"omitempty,max=255"`
	Href           *string `json:"href" validate:"omitempty,max=2048"`
	Target         *string `json:"target" validate:"omitempty,oneof=_self _blank"`
	ParentID       *uint   `json:"parent_id"`
	ClearParent    bool    `json:"clear_parent"`
	Order          *int    `json:"order"`
	IsSectionTitle *bool   `json:"is_section_title"`
	IsActive       *bool   `json:"is_active"`
	Permission     *string `json:"permission" validate:"omitempty,max=255"`
	RoleIDs        *[]uint `json:"role_ids"`
}

type reorderMenusRequest struct {
	Menus []services.MenuOrder `json:"menus" validate:"required,min=1"`
}

// List returns a paginated menu listing. The parent_id filter accepts a
// menu id or the "root" sentinel for top-level entries.
func (h *MenuHandler) List(c *gin.Context) {
	input := services.ListMenusInput{
		Pagination: pageInput(c),
		Search:     c.Query("search"),
		ParentID:   c.Query("parent_id"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	menus, total, err := h.menus.List(c.Request.Context(), input)
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
	response.SuccessWithMeta(c, http.StatusOK, menus, response.NewMeta(page.Page, page.PerPage, total))
}

// Tree returns the full navigation tree for the menu editor.
func (h *MenuHandler) Tree(c *gin.Context) {
	roots, err := h.menus.Tree(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roots)
}

// ListFlat returns the parent pick-list.
func (h *MenuHandler) ListFlat(c *gin.Context) {
	flat, err := h.menus.ListFlat(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, flat)
}

// UserMenus returns the navigation tree pruned to what the caller may see.
func (h *MenuHandler) UserMenus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	isSuperAdmin, err := h.checker.IsSuperAdmin(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var permissionNames []string
	if !isSuperAdmin {
		permissionNames, err = h.checker.GetUserPermissionNames(ctx, userID)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	views, err := h.menus.UserMenus(ctx, permissionNames, isSuperAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, views)
}

// Get returns a single menu.
func (h *MenuHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	menu, err := h.menus.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, menu)
}

// Create adds a new menu entry.
func (h *MenuHandler) Create(c *gin.Context) {
	var req createMenuRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	menu, err := h.menus.Create(ctx, services.CreateMenuInput{
		Title:          req.Title,
		Icon:           req.Icon,
		To:             req.To,
		Href:           req.Href,
		Target:         req.Target,
		ParentID:       req.ParentID,
		Order:          req.Order,
		IsSectionTitle: req.IsSectionTitle,
		IsActive:       req.IsActive,
		Permission:     req.Permission,
		RoleIDs:        req.RoleIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "menu.create", fmt.Sprintf("menu:%d", menu.ID), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusCreated, "Menu created.", menu)
}

// Update modifies an existing menu entry.
func (h *MenuHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateMenuRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	menu, err := h.menus.Update(ctx, id, services.UpdateMenuInput{
		Title:          req.Title,
		Icon:           req.Icon,
		To:             req.To,
		Href:           req.Href,
		Target:         req.Target,
		ParentID:       req.ParentID,
		ClearParent:    req.ClearParent,
		Order:          req.Order,
		IsSectionTitle: req.IsSectionTitle,
		IsActive:       req.IsActive,
		Permission:     req.Permission,
		RoleIDs:        req.RoleIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "menu.update", fmt.Sprintf("menu:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Menu updated.", menu)
}

// Delete removes a menu entry and its whole subtree.
func (h *MenuHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.menus.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "menu.delete", fmt.Sprintf("menu:%d", id), services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Menu deleted.", nil)
}

// Reorder applies bulk order updates. Updates are independent: rows
// that fail do not roll back the ones that applied.
func (h *MenuHandler) Reorder(c *gin.Context) {
	var req reorderMenusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.menus.Reorder(ctx, req.Menus); err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Record(ctx, auditEntry(c, "menu.reorder", "menu", services.AuditResultSuccess))
	response.SuccessMessage(c, http.StatusOK, "Menus reordered.", nil)
}
