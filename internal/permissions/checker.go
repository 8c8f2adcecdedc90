// Package permissions resolves the permission and role sets granted to
// a user through role assignments.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
)

// Checker evaluates user permissions against role assignments.
type Checker struct {
	db *gorm.DB
}

// NewChecker constructs a permission checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("permission checker: db is required")
	}
	return &Checker{db: db}, nil
}

// Check determines whether the user holds the named permission.
// Members of the super-admin role pass every check.
func (c *Checker) Check(ctx context.Context, userID uint, permission string) (bool, error) {
	ctx = ensureContext(ctx)

	if userID == 0 {
		return false, errors.New("permission checker: user id is required")
	}
	if permission == "" {
		return false, errors.New("permission checker: permission name is required")
	}

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if user.HasRole(models.SuperAdminRole) {
		return true, nil
	}

	for _, role := range user.Roles {
		for _, perm := range role.Permissions {
			if perm.Name == permission {
				return true, nil
			}
		}
	}
	return false, nil
}

// GetUserPermissions returns the distinct permissions granted to the
// user through any role, ordered by name. Super-admins receive the
// full permission catalogue.
func (c *Checker) GetUserPermissions(ctx context.Context, userID uint) ([]models.Permission, error) {
	ctx = ensureContext(ctx)

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.HasRole(models.SuperAdminRole) {
		var all []models.Permission
		if err := c.db.WithContext(ctx).Order("name ASC").Find(&all).Error; err != nil {
			return nil, fmt.Errorf("permission checker: list permissions: %w", err)
		}
		return all, nil
	}

	seen := make(map[uint]struct{})
	perms := make([]models.Permission, 0)
	for _, role := range user.Roles {
		for _, perm := range role.Permissions {
			if _, ok := seen[perm.ID]; ok {
				continue
			}
			seen[perm.ID] = struct{}{}
			perms = append(perms, perm)
		}
	}

	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
	return perms, nil
}

// GetUserPermissionNames returns the names of GetUserPermissions.
func (c *Checker) GetUserPermissionNames(ctx context.Context, userID uint) ([]string, error) {
	perms, err := c.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(perms))
	for _, perm := range perms {
		names = append(names, perm.Name)
	}
	return names, nil
}

// GetUserRoleNames returns the names of the user's roles, ordered by name.
func (c *Checker) GetUserRoleNames(ctx context.Context, userID uint) ([]string, error) {
	ctx = ensureContext(ctx)

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		names = append(names, role.Name)
	}
	sort.Strings(names)
	return names, nil
}

// IsSuperAdmin reports whether the user carries the bootstrap role.
func (c *Checker) IsSuperAdmin(ctx context.Context, userID uint) (bool, error) {
	ctx = ensureContext(ctx)

	user, err := c.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.HasRole(models.SuperAdminRole), nil
}

func (c *Checker) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := c.db.WithContext(ctx).
		Preload("Roles.Permissions").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("permission checker: load user: %w", err)
	}
	return &user, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
