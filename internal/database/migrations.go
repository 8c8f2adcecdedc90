package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Menu{},
		&models.Session{},
		&models.AuditLog{},
	)
}

// seedPermissions is the default permission catalogue.
var seedPermissions = []string{
	"user.view", "user.create", "user.edit", "user.delete",
	"role.view", "role.create", "role.edit", "role.delete",
	"permission.view", "permission.create", "permission.edit", "permission.delete",
	"menu.view", "menu.create", "menu.edit", "menu.delete",
	"dashboard.view", "dashboard.statistics",
	"settings.view", "settings.edit",
}

var seedRolePermissions = map[string][]string{
	models.SuperAdminRole: seedPermissions,
	"admin": {
		"user.view", "user.create", "user.edit", "user.delete",
		"role.view", "role.create", "role.edit", "role.delete",
		"dashboard.view", "dashboard.statistics",
		"settings.view", "settings.edit",
	},
	"manager": {
		"user.view",
		"dashboard.view", "dashboard.statistics",
		"settings.view",
	},
	"user": {
		"dashboard.view",
	},
}

var seedUsers = []struct {
	Name  string
	Email string
	Role  string
}{
	{Name: "Super Admin", Email: "superadmin@example.com", Role: models.SuperAdminRole},
	{Name: "Admin User", Email: "admin@example.com", Role: "admin"},
	{Name: "Manager User", Email: "manager@example.com", Role: "manager"},
	{Name: "Regular User", Email: "user@example.com", Role: "user"},
}

// SeedData populates the default permission catalogue, roles, users,
// and navigation menu. Existing rows are left untouched so operator
// customisations survive restarts.
func SeedData(db *gorm.DB) error {
	if err := seedPermissionCatalogue(db); err != nil {
		return err
	}
	if err := seedRoles(db); err != nil {
		return err
	}
	if err := seedDefaultUsers(db); err != nil {
		return err
	}
	return seedMenuTree(db)
}

func seedPermissionCatalogue(db *gorm.DB) error {
	for _, name := range seedPermissions {
		perm := models.Permission{Name: name}
		if err := db.Where(models.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("seed permission %q: %w", name, err)
		}
	}
	return nil
}

func seedRoles(db *gorm.DB) error {
	for name, permissionNames := range seedRolePermissions {
		var role models.Role
		err := db.Where("name = ?", name).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed role %q: %w", name, err)
		}

		var perms []models.Permission
		if err := db.Where("name IN ?", permissionNames).Find(&perms).Error; err != nil {
			return fmt.Errorf("seed role %q: load permissions: %w", name, err)
		}

		role = models.Role{Name: name, Permissions: perms}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
	}
	return nil
}

func seedDefaultUsers(db *gorm.DB) error {
	for _, seed := range seedUsers {
		var existing models.User
		err := db.Where("email = ?", seed.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed user %q: %w", seed.Email, err)
		}

		var role models.Role
		if err := db.Where("name = ?", seed.Role).First(&role).Error; err != nil {
			return fmt.Errorf("seed user %q: load role: %w", seed.Email, err)
		}

		hashed, err := crypto.HashPassword("password")
		if err != nil {
			return fmt.Errorf("seed user %q: hash password: %w", seed.Email, err)
		}

		user := models.User{
			Name:     seed.Name,
			Email:    seed.Email,
			Password: hashed,
			Roles:    []models.Role{role},
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("seed user %q: %w", seed.Email, err)
		}
	}
	return nil
}

// seedMenuTree inserts the default navigation tree. It runs only on an
// empty menus table; the tree is operator-editable afterwards.
func seedMenuTree(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Menu{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed menus: count: %w", err)
	}
	if count > 0 {
		return nil
	}

	var adminRoles []models.Role
	if err := db.Where("name IN ?", []string{models.SuperAdminRole, "admin"}).Find(&adminRoles).Error; err != nil {
		return fmt.Errorf("seed menus: load roles: %w", err)
	}

	create := func(menu *models.Menu) error {
		if menu.Target == "" {
			menu.Target = models.TargetSelf
		}
		menu.IsActive = true
		if err := db.Create(menu).Error; err != nil {
			return fmt.Errorf("seed menu %q: %w", menu.Title, err)
		}
		return nil
	}

	if err := create(&models.Menu{Title: "Dashboard", Icon: "bx-home-smile", To: "/dashboard", Order: 1}); err != nil {
		return err
	}

	accessSection := models.Menu{Title: "Access Management", IsSectionTitle: true, Order: 2, Roles: adminRoles}
	if err := create(&accessSection); err != nil {
		return err
	}

	accessGroup := models.Menu{Title: "Access Management", Icon: "bx-shield-quarter", Order: 3, Roles: adminRoles}
	if err := create(&accessGroup); err != nil {
		return err
	}

	children := []models.Menu{
		{Title: "Users", To: "/users", Permission: "user.view", Order: 1},
		{Title: "Roles", To: "/roles", Permission: "role.view", Order: 2},
		{Title: "Permissions", To: "/permissions", Permission: "permission.view", Order: 3},
		{Title: "Menus", To: "/menus", Permission: "menu.view", Order: 4},
	}
	for i := range children {
		children[i].ParentID = &accessGroup.ID
		if err := create(&children[i]); err != nil {
			return err
		}
	}

	rest := []models.Menu{
		{Title: "Settings", IsSectionTitle: true, Order: 4},
		{Title: "Account Settings", Icon: "bx-cog", To: "/account-settings", Order: 5},
		{Title: "User Interface", IsSectionTitle: true, Order: 6},
		{Title: "Typography", Icon: "bx-text", To: "/typography", Order: 7},
		{Title: "Icons", Icon: "bx-package", To: "/icons", Order: 8},
		{Title: "Cards", Icon: "bx-credit-card", To: "/cards", Order: 9},
		{Title: "Forms & Tables", IsSectionTitle: true, Order: 10},
		{Title: "Form Layouts", Icon: "bx-layout", To: "/form-layouts", Order: 11},
		{Title: "Tables", Icon: "bx-table", To: "/tables", Order: 12},
		{Title: "Others", IsSectionTitle: true, Order: 13},
		{
			Title:  "Documentation",
			Icon:   "bx-file",
			Href:   "https://demos.themeselection.com/sneat-vuetify-vuejs-admin-template/documentation/",
			Target: models.TargetBlank,
			Order:  14,
		},
	}
	for i := range rest {
		if err := create(&rest[i]); err != nil {
			return err
		}
	}

	return nil
}
