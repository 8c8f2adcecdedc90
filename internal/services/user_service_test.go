package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/pkg/crypto"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
)

func createRole(t *testing.T, db *gorm.DB, name string) *models.Role {
	t.Helper()
	role := &models.Role{Name: name}
	require.NoError(t, db.Create(role).Error)
	return role
}

func TestUserServiceCreateAndGet(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	role := createRole(t, db, "editor")

	user, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "password123",
		RoleIDs:  []uint{role.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	require.Len(t, user.Roles, 1)
	assert.Equal(t, "editor", user.Roles[0].Name)
	assert.True(t, crypto.VerifyPassword(user.Password, "password123"))
}

func TestUserServiceGetByEmailIsCaseInsensitive(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	created, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "John",
		Email:    "John@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	// The exact string used at registration must find the stored row.
	user, err := svc.GetByEmail(context.Background(), "John@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	user, err = svc.GetByEmail(context.Background(), "  JOHN@EXAMPLE.COM ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	_, err := svc.Create(context.Background(), CreateUserInput{Name: "A", Email: "dup@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateUserInput{Name: "B", Email: "dup@example.com", Password: "password123"})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	assert.Equal(t, 422, appErr.StatusCode)
}

func TestUserServiceCreateUnknownRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Name:     "A",
		Email:    "norole@example.com",
		Password: "password123",
		RoleIDs:  []uint{999},
	})
	require.Error(t, err)
	assert.Equal(t, 422, apperrors.FromError(err).StatusCode)
}

func TestUserServiceListSearchAndRoleFilter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	admin := createRole(t, db, "admin")

	_, err := svc.Create(context.Background(), CreateUserInput{Name: "Alice Admin", Email: "alice@example.com", Password: "password123", RoleIDs: []uint{admin.ID}})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateUserInput{Name: "Bob Basic", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	users, total, err := svc.List(context.Background(), ListUsersInput{Search: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice Admin", users[0].Name)

	users, total, err = svc.List(context.Background(), ListUsersInput{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)

	_, total, err = svc.List(context.Background(), ListUsersInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUserServiceListPagination(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Create(context.Background(), CreateUserInput{Name: email, Email: email, Password: "password123"})
		require.NoError(t, err)
	}

	users, total, err := svc.List(context.Background(), ListUsersInput{
		Pagination: Pagination{Page: 2, PerPage: 2},
		SortBy:     "email",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "c@example.com", users[0].Email)
}

func TestUserServiceUpdatePartial(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	user, err := svc.Create(context.Background(), CreateUserInput{Name: "Old", Email: "old@example.com", Password: "password123"})
	require.NoError(t, err)
	originalHash := user.Password

	name := "New Name"
	empty := ""
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserInput{Name: &name, Password: &empty})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "old@example.com", updated.Email)
	assert.Equal(t, originalHash, updated.Password)
}

func TestUserServiceSetRolesReplaces(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	first := createRole(t, db, "first")
	second := createRole(t, db, "second")

	user, err := svc.Create(context.Background(), CreateUserInput{Name: "A", Email: "roles@example.com", Password: "password123", RoleIDs: []uint{first.ID}})
	require.NoError(t, err)

	require.NoError(t, svc.SetRoles(context.Background(), user.ID, []uint{second.ID}))

	reloaded, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Roles, 1)
	assert.Equal(t, "second", reloaded.Roles[0].Name)
}

func TestUserServiceDeleteSelfGuard(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	user, err := svc.Create(context.Background(), CreateUserInput{Name: "A", Email: "self@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), user.ID, user.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.FromError(err).StatusCode)

	other, err := svc.Create(context.Background(), CreateUserInput{Name: "B", Email: "other@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID, other.ID))
	_, err = svc.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserServiceDeleteMissing(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)

	err := svc.Delete(context.Background(), 999, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserServiceExportXLSX(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	role := createRole(t, db, "admin")

	_, err := svc.Create(context.Background(), CreateUserInput{Name: "Alice", Email: "alice@example.com", Password: "password123", RoleIDs: []uint{role.ID}})
	require.NoError(t, err)

	data, err := svc.ExportXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Alice", rows[1][1])
	assert.Equal(t, "admin", rows[1][3])
}
