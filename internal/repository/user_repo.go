package repository

import (
	"context"

	"shopapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows user listings in the admin console.
type UserFilter struct {
	Search   string // matches name or email
	RoleSlug string // only users holding this role
	Status   string // verify_status
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDWithRoles(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int, filter UserFilter) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Role association management. Append and Remove are idempotent at
	// the persistence level; Replace swaps the full association set in
	// one call (delete-then-insert semantics inside GORM).
	AppendRole(ctx context.Context, user *model.User, role *model.Role) error
	RemoveRole(ctx context.Context, user *model.User, role *model.Role) error
	ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error

	// ListRolesWithPermissions returns the user's roles with each role's
	// permission set preloaded, for effective-permission computation.
	ListRolesWithPermissions(ctx context.Context, userID uuid.UUID) ([]model.Role, error)

	// CountByRoleSlug counts users currently holding the role with the
	// given slug (last-admin protection).
	CountByRoleSlug(ctx context.Context, slug string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDWithRoles(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).
		Preload("Roles").
		Preload("Roles.Permissions").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db).Model(&model.User{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	if filter.RoleSlug != "" {
		db = db.Joins("JOIN user_roles ur ON ur.user_id = users.id").
			Joins("JOIN roles ON roles.id = ur.role_id").
			Where("roles.slug = ?", filter.RoleSlug)
	}
	if filter.Status != "" {
		db = db.Where("verify_status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Roles").Preload("Roles.Permissions").
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepository) AppendRole(ctx context.Context, user *model.User, role *model.Role) error {
	return GetDB(ctx, r.db).Model(user).Association("Roles").Append(role)
}

func (r *userRepository) RemoveRole(ctx context.Context, user *model.User, role *model.Role) error {
	return GetDB(ctx, r.db).Model(user).Association("Roles").Delete(role)
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	return GetDB(ctx, r.db).Model(user).Association("Roles").Replace(roles)
}

func (r *userRepository) ListRolesWithPermissions(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	var user model.User
	if err := GetDB(ctx, r.db).
		Preload("Roles.Permissions").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return user.Roles, nil
}

func (r *userRepository) CountByRoleSlug(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).
		Joins("JOIN user_roles ur ON ur.user_id = users.id").
		Joins("JOIN roles ON roles.id = ur.role_id").
		Where("roles.slug = ?", slug).
		Count(&count).Error
	return count, err
}
