package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/pkg/crypto"
	apperrors "github.com/panelkit/panelkit/pkg/errors"
)

var userSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
}

// ListUsersInput captures the filters accepted by the user list endpoint.
type ListUsersInput struct {
	Pagination
	Search    string
	Role      string
	SortBy    string
	SortOrder string
}

// CreateUserInput carries the fields needed to create an account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	RoleIDs  []uint
}

// UpdateUserInput carries the mutable account fields. Nil pointers
// leave the corresponding column untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	RoleIDs  *[]uint
}

// UserService implements account management on top of GORM.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns a page of users with roles preloaded, plus the total count.
func (s *UserService) List(ctx context.Context, input ListUsersInput) ([]models.User, int64, error) {
	page := input.Pagination.normalise()

	query := s.db.WithContext(ctx).Model(&models.User{})

	if search := strings.TrimSpace(input.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	if role := strings.TrimSpace(input.Role); role != "" {
		query = query.
			Joins("JOIN user_roles ON user_roles.user_id = users.id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", role)
	}

	var total int64
	if err := query.Distinct("users.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	column := sortColumn(input.SortBy, "id", userSortColumns)
	order := fmt.Sprintf("users.%s %s", column, sortDirection(input.SortOrder))

	var users []models.User
	err := query.
		Distinct("users.*").
		Preload("Roles").
		Order(order).
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// Get loads a single user with roles and role permissions preloaded.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Roles").
		Preload("Roles.Permissions").
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads a user by email address for credential checks. The
// lookup is normalised the same way the write path stores it.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Roles").
		Preload("Roles.Permissions").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// Create inserts a new user with a hashed password and optional roles.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     input.Name,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: hashed,
	}

	if ids := normaliseIDs(input.RoleIDs); len(ids) > 0 {
		var roles []models.Role
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		if len(roles) != len(ids) {
			return nil, apperrors.NewUnprocessable("One or more roles do not exist.")
		}
		user.Roles = roles
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewUnprocessable("The email has already been taken.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.Get(ctx, user.ID)
}

// Update applies a partial update to a user. An empty password pointer
// target is ignored rather than persisted.
func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := crypto.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = hashed
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(user).Updates(updates).Error
		if err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.NewUnprocessable("The email has already been taken.")
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	if input.RoleIDs != nil {
		if err := s.SetRoles(ctx, id, *input.RoleIDs); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// SetRoles replaces the user's role set.
func (s *UserService) SetRoles(ctx context.Context, id uint, roleIDs []uint) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ids := normaliseIDs(roleIDs)
	var roles []models.Role
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
			return fmt.Errorf("load roles: %w", err)
		}
		if len(roles) != len(ids) {
			return apperrors.NewUnprocessable("One or more roles do not exist.")
		}
	}

	if err := s.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		return fmt.Errorf("replace roles: %w", err)
	}
	return nil
}

// Delete removes a user. Actors cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, id, actorID uint) error {
	if id == actorID {
		return apperrors.New("FORBIDDEN", "You cannot delete your own account.", 403)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(user).Association("Roles").Clear(); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ExportXLSX renders every user as a spreadsheet row for download.
func (s *UserService) ExportXLSX(ctx context.Context) ([]byte, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Roles").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Users"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{"ID", "Name", "Email", "Roles", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, user := range users {
		roleNames := make([]string, 0, len(user.Roles))
		for _, role := range user.Roles {
			roleNames = append(roleNames, role.Name)
		}

		values := []interface{}{
			user.ID,
			user.Name,
			user.Email,
			strings.Join(roleNames, ", "),
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialise workbook: %w", err)
	}
	return buf.Bytes(), nil
}
