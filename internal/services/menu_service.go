package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/internal/navtree"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
)

// RootParentSentinel selects top-level menus in the parent_id list filter.
const RootParentSentinel = "root"

var menuSortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"order":      "order",
	"created_at": "created_at",
}

// ListMenusInput captures the filters accepted by the menu list endpoint.
type ListMenusInput struct {
	Pagination
	Search    string
	ParentID  string
	SortBy    string
	SortOrder string
}

// CreateMenuInput carries the fields needed to create a menu entry.
type CreateMenuInput struct {
	Title          string
	Icon           string
	To             string
	Href           string
	Target         string
	ParentID       *uint
	Order          int
	IsSectionTitle bool
	IsActive       *bool
	Permission     string
	RoleIDs        []uint
}

// UpdateMenuInput carries the mutable menu fields. Nil pointers leave
// the corresponding column untouched.
type UpdateMenuInput struct {
	Title          *string
	Icon           *string
	To             *string
	Href           *string
	Target         *string
	ParentID       *uint
	ClearParent    bool
	Order          *int
	IsSectionTitle *bool
	IsActive       *bool
	Permission     *string
	RoleIDs        *[]uint
}

// MenuOrder is one row of a bulk reorder request.
type MenuOrder struct {
	ID    uint `json:"id" binding:"required"`
	Order int  `json:"order"`
}

// FlatMenu is the pick-list projection used by the menu editor.
type FlatMenu struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	ParentID *uint  `json:"parent_id"`
}

// MenuService implements navigation menu management.
type MenuService struct {
	db *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

// orderColumn quotes the order column per vendor; "order" is a reserved word.
func orderColumn() clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "order"}},
		{Column: clause.Column{Name: "id"}},
	}}
}

// List returns a page of menus plus the total count. ParentID accepts a
// numeric id or the "root" sentinel for top-level entries.
func (s *MenuService) List(ctx context.Context, input ListMenusInput) ([]models.Menu, int64, error) {
	page := input.Pagination.normalise()

	query := s.db.WithContext(ctx).Model(&models.Menu{})
	if search := strings.TrimSpace(input.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	switch parent := strings.TrimSpace(input.ParentID); parent {
	case "":
	case RootParentSentinel:
		query = query.Where("parent_id IS NULL")
	default:
		id, err := strconv.ParseUint(parent, 10, 64)
		if err != nil {
			return nil, 0, apperrors.NewBadRequest("parent_id must be a menu id or \"root\"")
		}
		query = query.Where("parent_id = ?", uint(id))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count menus: %w", err)
	}

	column := sortColumn(input.SortBy, "order", menuSortColumns)
	direction := sortDirection(input.SortOrder)
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: direction == "DESC"},
		{Column: clause.Column{Name: "id"}},
	}}

	var menus []models.Menu
	err := query.
		Preload("Parent").
		Preload("Roles").
		Order(order).
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&menus).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list menus: %w", err)
	}

	return menus, total, nil
}

// Tree returns the root menus with one level of active children, ordered,
// roles preloaded. No permission filtering: this feeds the menu editor.
func (s *MenuService) Tree(ctx context.Context) ([]models.Menu, error) {
	var roots []models.Menu
	err := s.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Preload("Roles").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order(orderColumn())
		}).
		Preload("Children.Roles").
		Order(orderColumn()).
		Find(&roots).Error
	if err != nil {
		return nil, fmt.Errorf("load menu tree: %w", err)
	}
	return roots, nil
}

// ListFlat returns every non-section menu as {id, title, parent_id},
// for parent pick-lists.
func (s *MenuService) ListFlat(ctx context.Context) ([]FlatMenu, error) {
	var menus []models.Menu
	err := s.db.WithContext(ctx).
		Where("is_section_title = ?", false).
		Order(orderColumn()).
		Find(&menus).Error
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}

	flat := make([]FlatMenu, 0, len(menus))
	for _, menu := range menus {
		flat = append(flat, FlatMenu{ID: menu.ID, Title: menu.Title, ParentID: menu.ParentID})
	}
	return flat, nil
}

// UserMenus loads the active navigation tree and prunes it down to the
// entries the caller may see.
func (s *MenuService) UserMenus(ctx context.Context, permissionNames []string, isSuperAdmin bool) ([]navtree.View, error) {
	var roots []models.Menu
	err := s.db.WithContext(ctx).
		Where("parent_id IS NULL AND is_active = ?", true).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order(orderColumn())
		}).
		Order(orderColumn()).
		Find(&roots).Error
	if err != nil {
		return nil, fmt.Errorf("load menus: %w", err)
	}

	return navtree.Filter(roots, permissionNames, isSuperAdmin), nil
}

// Get loads a single menu with parent, children, and roles preloaded.
func (s *MenuService) Get(ctx context.Context, id uint) (*models.Menu, error) {
	var menu models.Menu
	err := s.db.WithContext(ctx).
		Preload("Parent").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order(orderColumn())
		}).
		Preload("Roles").
		First(&menu, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get menu: %w", err)
	}
	return &menu, nil
}

// Create inserts a new menu entry with optional role links.
func (s *MenuService) Create(ctx context.Context, input CreateMenuInput) (*models.Menu, error) {
	if input.ParentID != nil {
		if _, err := s.Get(ctx, *input.ParentID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewUnprocessable("The selected parent menu does not exist.")
			}
			return nil, err
		}
	}

	target := input.Target
	if target == "" {
		target = models.TargetSelf
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	menu := &models.Menu{
		Title:          strings.TrimSpace(input.Title),
		Icon:           input.Icon,
		To:             input.To,
		Href:           input.Href,
		Target:         target,
		ParentID:       input.ParentID,
		Order:          input.Order,
		IsSectionTitle: input.IsSectionTitle,
		IsActive:       active,
		Permission:     input.Permission,
	}

	if ids := normaliseIDs(input.RoleIDs); len(ids) > 0 {
		var roles []models.Role
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		if len(roles) != len(ids) {
			return nil, apperrors.NewUnprocessable("One or more roles do not exist.")
		}
		menu.Roles = roles
	}

	if err := s.db.WithContext(ctx).Create(menu).Error; err != nil {
		return nil, fmt.Errorf("create menu: %w", err)
	}

	return s.Get(ctx, menu.ID)
}

// Update applies a partial update. Parent reassignment rejects
// self-parenting and any move that would close a cycle through the
// menu's own descendants.
func (s *MenuService) Update(ctx context.Context, id uint, input UpdateMenuInput) (*models.Menu, error) {
	menu, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Icon != nil {
		updates["icon"] = *input.Icon
	}
	if input.To != nil {
		updates["to"] = *input.To
	}
	if input.Href != nil {
		updates["href"] = *input.Href
	}
	if input.Target != nil {
		updates["target"] = *input.Target
	}
	if input.Order != nil {
		updates["order"] = *input.Order
	}
	if input.IsSectionTitle != nil {
		updates["is_section_title"] = *input.IsSectionTitle
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Permission != nil {
		updates["permission"] = *input.Permission
	}

	if input.ClearParent {
		updates["parent_id"] = gorm.Expr("NULL")
	} else if input.ParentID != nil {
		newParent := *input.ParentID
		if newParent == id {
			return nil, apperrors.NewUnprocessable("A menu cannot be its own parent.")
		}
		if _, err := s.Get(ctx, newParent); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewUnprocessable("The selected parent menu does not exist.")
			}
			return nil, err
		}
		cycle, err := s.isDescendant(ctx, id, newParent)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, apperrors.NewUnprocessable("A menu cannot be moved under its own descendant.")
		}
		updates["parent_id"] = newParent
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(menu).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update menu: %w", err)
		}
	}

	if input.RoleIDs != nil {
		ids := normaliseIDs(*input.RoleIDs)
		var roles []models.Role
		if len(ids) > 0 {
			if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
				return nil, fmt.Errorf("load roles: %w", err)
			}
			if len(roles) != len(ids) {
				return nil, apperrors.NewUnprocessable("One or more roles do not exist.")
			}
		}
		if err := s.db.WithContext(ctx).Model(menu).Association("Roles").Replace(roles); err != nil {
			return nil, fmt.Errorf("replace roles: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// isDescendant reports whether candidate sits anywhere in the subtree
// rooted at menuID.
func (s *MenuService) isDescendant(ctx context.Context, menuID, candidate uint) (bool, error) {
	frontier := []uint{menuID}
	for len(frontier) > 0 {
		var children []models.Menu
		err := s.db.WithContext(ctx).
			Select("id").
			Where("parent_id IN ?", frontier).
			Find(&children).Error
		if err != nil {
			return false, fmt.Errorf("walk menu tree: %w", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			if child.ID == candidate {
				return true, nil
			}
			frontier = append(frontier, child.ID)
		}
	}
	return false, nil
}

// Delete removes a menu and its whole subtree, clearing role links first.
func (s *MenuService) Delete(ctx context.Context, id uint) error {
	menu, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ids := []uint{menu.ID}
	frontier := []uint{menu.ID}
	for len(frontier) > 0 {
		var children []models.Menu
		err := s.db.WithContext(ctx).
			Select("id").
			Where("parent_id IN ?", frontier).
			Find(&children).Error
		if err != nil {
			return fmt.Errorf("collect descendants: %w", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			ids = append(ids, child.ID)
			frontier = append(frontier, child.ID)
		}
	}

	if err := s.db.WithContext(ctx).Exec("DELETE FROM menu_roles WHERE menu_id IN ?", ids).Error; err != nil {
		return fmt.Errorf("clear role links: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Menu{}).Error; err != nil {
		return fmt.Errorf("delete menus: %w", err)
	}
	return nil
}

// Reorder applies independent order updates. Rows are updated one by
// one without a transaction; failures are aggregated and the rest
// still apply, so a duplicate id resolves last-write-wins.
func (s *MenuService) Reorder(ctx context.Context, orders []MenuOrder) error {
	var errs error
	for _, item := range orders {
		result := s.db.WithContext(ctx).
			Model(&models.Menu{}).
			Where("id = ?", item.ID).
			Update("order", item.Order)
		if result.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("menu %d: %w", item.ID, result.Error))
			continue
		}
		if result.RowsAffected == 0 {
			errs = multierr.Append(errs, fmt.Errorf("menu %d: not found", item.ID))
		}
	}
	if errs != nil {
		return apperrors.NewUnprocessable("Some menu orders could not be updated.").WithInternal(errs)
	}
	return nil
}
