package repository

import (
	"context"

	"shopapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleFilter narrows role listings.
type RoleFilter struct {
	Search   string // matches name, slug or description
	IsActive *bool
}

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindBySlug(ctx context.Context, slug string) (*model.Role, error)
	List(ctx context.Context, page, limit int, filter RoleFilter) ([]model.Role, int64, error)

	// SlugTaken reports whether another role (excluding excludeID when
	// non-nil) already uses the slug.
	SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	NameTaken(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)

	// CountUsers counts users currently assigned the role.
	CountUsers(ctx context.Context, roleID uuid.UUID) (int64, error)

	AppendPermission(ctx context.Context, role *model.Role, perm *model.Permission) error
	RemovePermission(ctx context.Context, role *model.Role, perm *model.Permission) error
	ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error
	ClearPermissions(ctx context.Context, role *model.Role) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindBySlug(ctx context.Context, slug string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Where("slug = ?", slug).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context, page, limit int, filter RoleFilter) ([]model.Role, int64, error) {
	var roles []model.Role
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Role{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("name ILIKE ? OR slug ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Permissions").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&roles).Error; err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

func (r *roleRepository) SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db).Model(&model.Role{}).Where("slug = ?", slug)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *roleRepository) NameTaken(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db).Model(&model.Role{}).Where("name = ?", name)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *roleRepository) CountUsers(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("user_roles").Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

func (r *roleRepository) AppendPermission(ctx context.Context, role *model.Role, perm *model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Append(perm)
}

func (r *roleRepository) RemovePermission(ctx context.Context, role *model.Role, perm *model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Delete(perm)
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Replace(perms)
}

func (r *roleRepository) ClearPermissions(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Clear()
}
