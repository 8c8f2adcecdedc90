package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
)

var permissionSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

// ListPermissionsInput captures the filters accepted by the permission list endpoint.
type ListPermissionsInput struct {
	Pagination
	Search    string
	Group     string
	SortBy    string
	SortOrder string
}

// BulkCreateResult reports the outcome of a bulk permission insert.
type BulkCreateResult struct {
	Created []models.Permission `json:"created"`
	Skipped []string            `json:"skipped"`
}

// PermissionGroup bundles permissions sharing a name prefix.
type PermissionGroup struct {
	Group       string              `json:"group"`
	Permissions []models.Permission `json:"permissions"`
}

// PermissionService implements permission catalogue management.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// List returns a page of permissions plus the total count.
func (s *PermissionService) List(ctx context.Context, input ListPermissionsInput) ([]models.Permission, int64, error) {
	page := input.Pagination.normalise()

	query := s.db.WithContext(ctx).Model(&models.Permission{})
	if search := strings.TrimSpace(input.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if group := strings.TrimSpace(input.Group); group != "" {
		query = query.Where("name LIKE ?", group+".%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
	}

	column := sortColumn(input.SortBy, "id", permissionSortColumns)
	order := fmt.Sprintf("%s %s", column, sortDirection(input.SortOrder))

	var perms []models.Permission
	err := query.
		Order(order).
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&perms).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}

	return perms, total, nil
}

// ListAll returns every permission ordered by name, for pick-lists.
func (s *PermissionService) ListAll(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// Grouped returns every permission bucketed by the name prefix before
// the first dot. Names without a dot fall into the "general" group.
func (s *PermissionService) Grouped(ctx context.Context) ([]PermissionGroup, error) {
	perms, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	buckets := map[string][]models.Permission{}
	for _, perm := range perms {
		group := "general"
		if idx := strings.Index(perm.Name, "."); idx > 0 {
			group = perm.Name[:idx]
		}
		buckets[group] = append(buckets[group], perm)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]PermissionGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, PermissionGroup{Group: name, Permissions: buckets[name]})
	}
	return groups, nil
}

// Get loads a single permission.
func (s *PermissionService) Get(ctx context.Context, id uint) (*models.Permission, error) {
	var perm models.Permission
	err := s.db.WithContext(ctx).First(&perm, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return &perm, nil
}

// Create inserts a new permission.
func (s *PermissionService) Create(ctx context.Context, name string) (*models.Permission, error) {
	perm := &models.Permission{Name: strings.TrimSpace(name)}
	if err := s.db.WithContext(ctx).Create(perm).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewUnprocessable("The name has already been taken.")
		}
		return nil, fmt.Errorf("create permission: %w", err)
	}
	return perm, nil
}

// BulkCreate inserts permissions that do not yet exist and reports the
// ones skipped because they already did. Safe to repeat.
func (s *PermissionService) BulkCreate(ctx context.Context, names []string) (*BulkCreateResult, error) {
	result := &BulkCreateResult{
		Created: []models.Permission{},
		Skipped: []string{},
	}

	seen := map[string]struct{}{}
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var existing models.Permission
		err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
		if err == nil {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bulk create permission %q: %w", name, err)
		}

		perm := models.Permission{Name: name}
		if err := s.db.WithContext(ctx).Create(&perm).Error; err != nil {
			if isUniqueConstraintError(err) {
				result.Skipped = append(result.Skipped, name)
				continue
			}
			return nil, fmt.Errorf("bulk create permission %q: %w", name, err)
		}
		result.Created = append(result.Created, perm)
	}

	return result, nil
}

// Update renames a permission.
func (s *PermissionService) Update(ctx context.Context, id uint, name string) (*models.Permission, error) {
	perm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(perm).Update("name", strings.TrimSpace(name)).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewUnprocessable("The name has already been taken.")
		}
		return nil, fmt.Errorf("update permission: %w", err)
	}
	return perm, nil
}

// Delete removes a permission and detaches it from every role.
func (s *PermissionService) Delete(ctx context.Context, id uint) error {
	perm, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(perm).Association("Roles").Clear(); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Permission{}, id).Error; err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}
