package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
)

func setupCheckerTest(t *testing.T) (*gorm.DB, *Checker) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	checker, err := NewChecker(db)
	require.NoError(t, err)
	return db, checker
}

func seedUserWithRole(t *testing.T, db *gorm.DB, roleName string, permissionNames ...string) *models.User {
	t.Helper()

	perms := make([]models.Permission, 0, len(permissionNames))
	for _, name := range permissionNames {
		perm := models.Permission{Name: name}
		require.NoError(t, db.Create(&perm).Error)
		perms = append(perms, perm)
	}

	role := models.Role{Name: roleName, Permissions: perms}
	require.NoError(t, db.Create(&role).Error)

	user := models.User{
		Name:     roleName + " user",
		Email:    roleName + "@example.com",
		Password: "secret",
		Roles:    []models.Role{role},
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestChecker_CheckGrantedThroughRole(t *testing.T) {
	db, checker := setupCheckerTest(t)
	user := seedUserWithRole(t, db, "editor", "menu.view", "menu.edit")

	allowed, err := checker.Check(context.Background(), user.ID, "menu.edit")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = checker.Check(context.Background(), user.ID, "menu.delete")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestChecker_SuperAdminBypass(t *testing.T) {
	db, checker := setupCheckerTest(t)
	user := seedUserWithRole(t, db, models.SuperAdminRole)

	allowed, err := checker.Check(context.Background(), user.ID, "anything.at.all")
	require.NoError(t, err)
	require.True(t, allowed)

	isSuper, err := checker.IsSuperAdmin(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, isSuper)
}

func TestChecker_GetUserPermissionsDeduplicates(t *testing.T) {
	db, checker := setupCheckerTest(t)

	shared := models.Permission{Name: "dashboard.view"}
	require.NoError(t, db.Create(&shared).Error)
	extra := models.Permission{Name: "user.view"}
	require.NoError(t, db.Create(&extra).Error)

	first := models.Role{Name: "first", Permissions: []models.Permission{shared, extra}}
	second := models.Role{Name: "second", Permissions: []models.Permission{shared}}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	user := models.User{
		Name:     "double role",
		Email:    "double@example.com",
		Password: "secret",
		Roles:    []models.Role{first, second},
	}
	require.NoError(t, db.Create(&user).Error)

	names, err := checker.GetUserPermissionNames(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"dashboard.view", "user.view"}, names)
}

func TestChecker_SuperAdminReceivesFullCatalogue(t *testing.T) {
	db, checker := setupCheckerTest(t)
	user := seedUserWithRole(t, db, models.SuperAdminRole)

	require.NoError(t, db.Create(&models.Permission{Name: "user.view"}).Error)
	require.NoError(t, db.Create(&models.Permission{Name: "menu.view"}).Error)

	names, err := checker.GetUserPermissionNames(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"menu.view", "user.view"}, names)
}

func TestChecker_GetUserRoleNames(t *testing.T) {
	db, checker := setupCheckerTest(t)
	user := seedUserWithRole(t, db, "manager", "user.view")

	names, err := checker.GetUserRoleNames(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"manager"}, names)
}
