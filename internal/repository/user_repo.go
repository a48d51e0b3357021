package repository

import (
	"context"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, p pagination.Params) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	ReplaceRoles(ctx context.Context, user *model.User, roleIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	PermissionNames(ctx context.Context, id uuid.UUID) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

var userSortColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit("Roles.*").Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Roles.Permissions").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).Preload("Roles.Permissions").
		First(&user, "username = ? OR email = ?", username, username).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, p pagination.Params) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := GetDB(ctx, r.db).Model(&model.User{})
	if p.Search != "" {
		s := ilike(p.Search)
		query = query.Where("name ILIKE ? OR username ILIKE ? OR email ILIKE ?", s, s, s)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Roles").
		Order(p.OrderClause(userSortColumns, "created_at DESC")).
		Offset(p.Offset).Limit(p.PerPage).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Omit("Roles").Save(user).Error
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *model.User, roleIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	var roles []model.Role
	if len(roleIDs) > 0 {
		if err := db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
			return err
		}
	}
	if err := db.Model(user).Association("Roles").Replace(roles); err != nil {
		return err
	}
	user.Roles = roles
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}

// PermissionNames resolves the union of permissions granted through the user's roles
func (r *userRepository) PermissionNames(ctx context.Context, id uuid.UUID) ([]string, error) {
	var names []string
	err := GetDB(ctx, r.db).Raw(`
		SELECT DISTINCT p.name FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN user_roles ur ON ur.role_id = rp.role_id
		INNER JOIN users u ON u.id = ur.user_id
		WHERE u.id = ? AND u.deleted_at IS NULL AND u.is_active
		ORDER BY p.name
	`, id).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
