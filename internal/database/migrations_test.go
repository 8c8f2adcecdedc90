package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/database"
	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/pkg/crypto"
)

func TestSeedDataIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	// Running the seeder again must not duplicate rows.
	require.NoError(t, database.SeedData(db))

	var permissions, roles, users, menus int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&permissions).Error)
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Menu{}).Count(&menus).Error)

	assert.EqualValues(t, 20, permissions)
	assert.EqualValues(t, 4, roles)
	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 15, menus)
}

func TestSeedPreservesOperatorChanges(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "admin@example.com").
		Update("name", "Renamed Admin").Error)

	require.NoError(t, database.SeedData(db))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.Equal(t, "Renamed Admin", admin.Name)
}

func TestSeededUsersCanAuthenticate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	for _, email := range []string{
		"superadmin@example.com",
		"admin@example.com",
		"manager@example.com",
		"user@example.com",
	} {
		var user models.User
		require.NoError(t, db.Preload("Roles").Where("email = ?", email).First(&user).Error)
		assert.True(t, crypto.VerifyPassword(user.Password, "password"), email)
		assert.Len(t, user.Roles, 1, email)
	}
}

func TestSeededSuperAdminRoleHoldsFullCatalogue(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var role models.Role
	require.NoError(t, db.Preload("Permissions").
		Where("name = ?", models.SuperAdminRole).First(&role).Error)
	assert.Len(t, role.Permissions, 20)
}

func TestSeededMenuTreeShape(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var group models.Menu
	require.NoError(t, db.Preload("Roles").
		Where("title = ? AND is_section_title = ?", "Access Management", false).
		First(&group).Error)
	assert.NotEmpty(t, group.Roles)

	var children []models.Menu
	require.NoError(t, db.Where("parent_id = ?", group.ID).Find(&children).Error)
	require.Len(t, children, 4)

	titles := make(map[string]string, len(children))
	for _, child := range children {
		titles[child.Title] = child.Permission
	}
	assert.Equal(t, "user.view", titles["Users"])
	assert.Equal(t, "role.view", titles["Roles"])
	assert.Equal(t, "permission.view", titles["Permissions"])
	assert.Equal(t, "menu.view", titles["Menus"])
}
