package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
)

var roleSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

// ListRolesInput captures the filters accepted by the role list endpoint.
type ListRolesInput struct {
	Pagination
	Search    string
	SortBy    string
	SortOrder string
}

// CreateRoleInput carries the fields needed to create a role.
type CreateRoleInput struct {
	Name          string
	PermissionIDs []uint
}

// UpdateRoleInput carries the mutable role fields.
type UpdateRoleInput struct {
	Name          *string
	PermissionIDs *[]uint
}

// RoleService implements role management on top of GORM.
type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// List returns a page of roles with permissions preloaded, plus the total count.
func (s *RoleService) List(ctx context.Context, input ListRolesInput) ([]models.Role, int64, error) {
	page := input.Pagination.normalise()

	query := s.db.WithContext(ctx).Model(&models.Role{})
	if search := strings.TrimSpace(input.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	column := sortColumn(input.SortBy, "id", roleSortColumns)
	order := fmt.Sprintf("%s %s", column, sortDirection(input.SortOrder))

	var roles []models.Role
	err := query.
		Preload("Permissions").
		Order(order).
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&roles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}

	return roles, total, nil
}

// ListAll returns every role ordered by name, for pick-lists.
func (s *RoleService) ListAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Get loads a single role with its permissions.
func (s *RoleService) Get(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

// Create inserts a new role with an optional permission set.
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	role := &models.Role{Name: strings.TrimSpace(input.Name)}

	if ids := normaliseIDs(input.PermissionIDs); len(ids) > 0 {
		perms, err := s.loadPermissions(ctx, ids)
		if err != nil {
			return nil, err
		}
		role.Permissions = perms
	}

	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewUnprocessable("The name has already been taken.")
		}
		return nil, fmt.Errorf("create role: %w", err)
	}

	return s.Get(ctx, role.ID)
}

// Update renames a role and optionally replaces its permission set.
// The bootstrap role cannot be renamed.
func (s *RoleService) Update(ctx context.Context, id uint, input UpdateRoleInput) (*models.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if role.Name == models.SuperAdminRole && name != models.SuperAdminRole {
			return nil, apperrors.New("FORBIDDEN", "The super-admin role cannot be renamed.", 403)
		}
		err := s.db.WithContext(ctx).Model(role).Update("name", name).Error
		if err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.NewUnprocessable("The name has already been taken.")
			}
			return nil, fmt.Errorf("update role: %w", err)
		}
	}

	if input.PermissionIDs != nil {
		if err := s.SetPermissions(ctx, id, *input.PermissionIDs); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// SetPermissions replaces the role's permission set.
func (s *RoleService) SetPermissions(ctx context.Context, id uint, permissionIDs []uint) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ids := normaliseIDs(permissionIDs)
	var perms []models.Permission
	if len(ids) > 0 {
		perms, err = s.loadPermissions(ctx, ids)
		if err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Model(role).Association("Permissions").Replace(perms); err != nil {
		return fmt.Errorf("replace permissions: %w", err)
	}
	return nil
}

// Delete removes a role and its associations. The bootstrap role is protected.
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if role.Name == models.SuperAdminRole {
		return apperrors.New("FORBIDDEN", "The super-admin role cannot be deleted.", 403)
	}

	if err := s.db.WithContext(ctx).Model(role).Association("Permissions").Clear(); err != nil {
		return fmt.Errorf("clear permissions: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(role).Association("Users").Clear(); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(role).Association("Menus").Clear(); err != nil {
		return fmt.Errorf("clear menus: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Role{}, id).Error; err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

func (s *RoleService) loadPermissions(ctx context.Context, ids []uint) ([]models.Permission, error) {
	var perms []models.Permission
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	if len(perms) != len(ids) {
		return nil, apperrors.NewUnprocessable("One or more permissions do not exist.")
	}
	return perms, nil
}
