package services

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
)

func createMenu(t *testing.T, svc *MenuService, input CreateMenuInput) *models.Menu {
	t.Helper()
	menu, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	return menu
}

func TestMenuServiceCreateWithRoles(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)
	role := createRole(t, db, "admin")

	menu := createMenu(t, svc, CreateMenuInput{
		Title:   "Users",
		To:      "/users",
		Order:   1,
		RoleIDs: []uint{role.ID},
	})

	assert.Equal(t, models.TargetSelf, menu.Target)
	assert.True(t, menu.IsActive)
	require.Len(t, menu.Roles, 1)
	assert.Equal(t, "admin", menu.Roles[0].Name)
}

func TestMenuServiceCreateUnknownParent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	missing := uint(999)
	_, err := svc.Create(context.Background(), CreateMenuInput{Title: "Orphan", ParentID: &missing})
	require.Error(t, err)
	assert.Equal(t, 422, apperrors.FromError(err).StatusCode)
}

func TestMenuServiceListParentFilter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	root := createMenu(t, svc, CreateMenuInput{Title: "Root", Order: 1})
	createMenu(t, svc, CreateMenuInput{Title: "Child", ParentID: &root.ID, Order: 1})

	menus, total, err := svc.List(context.Background(), ListMenusInput{ParentID: RootParentSentinel})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, menus, 1)
	assert.Equal(t, "Root", menus[0].Title)

	menus, total, err = svc.List(context.Background(), ListMenusInput{ParentID: strconv.FormatUint(uint64(root.ID), 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, menus, 1)
	assert.Equal(t, "Child", menus[0].Title)

	_, _, err = svc.List(context.Background(), ListMenusInput{ParentID: "bogus"})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.FromError(err).StatusCode)
}

func TestMenuServiceTreeOrderingAndActiveChildren(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	second := createMenu(t, svc, CreateMenuInput{Title: "Second", Order: 2})
	createMenu(t, svc, CreateMenuInput{Title: "First", Order: 1})

	inactive := false
	createMenu(t, svc, CreateMenuInput{Title: "Hidden Child", ParentID: &second.ID, Order: 1, IsActive: &inactive})
	createMenu(t, svc, CreateMenuInput{Title: "Visible Child", ParentID: &second.ID, Order: 2})

	roots, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "First", roots[0].Title)
	assert.Equal(t, "Second", roots[1].Title)

	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "Visible Child", roots[1].Children[0].Title)
}

func TestMenuServiceListFlatExcludesSections(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	createMenu(t, svc, CreateMenuInput{Title: "Section", IsSectionTitle: true, Order: 1})
	createMenu(t, svc, CreateMenuInput{Title: "Entry", To: "/entry", Order: 2})

	flat, err := svc.ListFlat(context.Background())
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "Entry", flat[0].Title)
}

func TestMenuServiceUserMenusFiltersByPermission(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	group := createMenu(t, svc, CreateMenuInput{Title: "Admin", Icon: "bx-shield", Order: 1})
	createMenu(t, svc, CreateMenuInput{Title: "Users", To: "/users", Permission: "user.view", ParentID: &group.ID, Order: 1})
	createMenu(t, svc, CreateMenuInput{Title: "Roles", To: "/roles", Permission: "role.view", ParentID: &group.ID, Order: 2})
	createMenu(t, svc, CreateMenuInput{Title: "Dashboard", To: "/dashboard", Order: 2})

	views, err := svc.UserMenus(context.Background(), []string{"user.view"}, false)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "Admin", views[0].Title)
	require.Len(t, views[0].Children, 1)
	assert.Equal(t, "Users", views[0].Children[0].Title)
	assert.Equal(t, "Dashboard", views[1].Title)

	views, err = svc.UserMenus(context.Background(), nil, true)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Len(t, views[0].Children, 2)
}

func TestMenuServiceUpdateRejectsSelfParent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	menu := createMenu(t, svc, CreateMenuInput{Title: "Loop"})

	_, err := svc.Update(context.Background(), menu.ID, UpdateMenuInput{ParentID: &menu.ID})
	require.Error(t, err)
	assert.Equal(t, 422, apperrors.FromError(err).StatusCode)
}

func TestMenuServiceUpdateRejectsAncestorCycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	root := createMenu(t, svc, CreateMenuInput{Title: "Root"})
	child := createMenu(t, svc, CreateMenuInput{Title: "Child", ParentID: &root.ID})
	grandchild := createMenu(t, svc, CreateMenuInput{Title: "Grandchild", ParentID: &child.ID})

	_, err := svc.Update(context.Background(), root.ID, UpdateMenuInput{ParentID: &grandchild.ID})
	require.Error(t, err)
	assert.Equal(t, 422, apperrors.FromError(err).StatusCode)

	var reloaded models.Menu
	require.NoError(t, db.First(&reloaded, root.ID).Error)
	assert.Nil(t, reloaded.ParentID)
}

func TestMenuServiceUpdateClearParent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	root := createMenu(t, svc, CreateMenuInput{Title: "Root"})
	child := createMenu(t, svc, CreateMenuInput{Title: "Child", ParentID: &root.ID})

	updated, err := svc.Update(context.Background(), child.ID, UpdateMenuInput{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

func TestMenuServiceDeleteCascades(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)
	role := createRole(t, db, "admin")

	root := createMenu(t, svc, CreateMenuInput{Title: "Root", RoleIDs: []uint{role.ID}})
	child := createMenu(t, svc, CreateMenuInput{Title: "Child", ParentID: &root.ID, RoleIDs: []uint{role.ID}})
	createMenu(t, svc, CreateMenuInput{Title: "Grandchild", ParentID: &child.ID})
	keep := createMenu(t, svc, CreateMenuInput{Title: "Keep"})

	require.NoError(t, svc.Delete(context.Background(), root.ID))

	var count int64
	require.NoError(t, db.Model(&models.Menu{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var survivor models.Menu
	require.NoError(t, db.First(&survivor, keep.ID).Error)

	require.NoError(t, db.Table("menu_roles").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMenuServiceReorder(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	first := createMenu(t, svc, CreateMenuInput{Title: "First", Order: 1})
	second := createMenu(t, svc, CreateMenuInput{Title: "Second", Order: 2})

	err := svc.Reorder(context.Background(), []MenuOrder{
		{ID: first.ID, Order: 2},
		{ID: second.ID, Order: 1},
	})
	require.NoError(t, err)

	var reloaded models.Menu
	require.NoError(t, db.First(&reloaded, first.ID).Error)
	assert.Equal(t, 2, reloaded.Order)
}

func TestMenuServiceReorderPartialFailure(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	menu := createMenu(t, svc, CreateMenuInput{Title: "Only", Order: 1})

	err := svc.Reorder(context.Background(), []MenuOrder{
		{ID: 999, Order: 5},
		{ID: menu.ID, Order: 7},
	})
	require.Error(t, err)
	assert.Equal(t, 422, apperrors.FromError(err).StatusCode)

	var reloaded models.Menu
	require.NoError(t, db.First(&reloaded, menu.ID).Error)
	assert.Equal(t, 7, reloaded.Order)
}

func TestMenuServiceReorderLastWriteWins(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewMenuService(db)

	menu := createMenu(t, svc, CreateMenuInput{Title: "Dup", Order: 1})

	err := svc.Reorder(context.Background(), []MenuOrder{
		{ID: menu.ID, Order: 3},
		{ID: menu.ID, Order: 9},
	})
	require.NoError(t, err)

	var reloaded models.Menu
	require.NoError(t, db.First(&reloaded, menu.ID).Error)
	assert.Equal(t, 9, reloaded.Order)
}
