package repository

import (
	"context"

	"shopapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermissionFilter narrows permission listings.
type PermissionFilter struct {
	Search string // matches name, slug or description
	Module string
}

type PermissionRepository interface {
	Create(ctx context.Context, perm *model.Permission) error
	Update(ctx context.Context, perm *model.Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	FindBySlug(ctx context.Context, slug string) (*model.Permission, error)
	List(ctx context.Context, page, limit int, filter PermissionFilter) ([]model.Permission, int64, error)

	SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	NameTaken(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)

	// CountRoles counts roles referencing the permission; a referenced
	// permission may not be deleted.
	CountRoles(ctx context.Context, permID uuid.UUID) (int64, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *permissionRepository) Update(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Save(perm).Error
}

func (r *permissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Permission{}).Error
}

func (r *permissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) FindBySlug(ctx context.Context, slug string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("slug = ?", slug).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) List(ctx context.Context, page, limit int, filter PermissionFilter) ([]model.Permission, int64, error) {
	var perms []model.Permission
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Permission{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("name ILIKE ? OR slug ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if filter.Module != "" {
		db = db.Where("module = ?", filter.Module)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("module asc, name asc").Offset(offset).Limit(limit).
		Find(&perms).Error; err != nil {
		return nil, 0, err
	}

	return perms, total, nil
}

func (r *permissionRepository) SlugTaken(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db).Model(&model.Permission{}).Where("slug = ?", slug)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *permissionRepository) NameTaken(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db).Model(&model.Permission{}).Where("name = ?", name)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *permissionRepository) CountRoles(ctx context.Context, permID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("role_permissions").Where("permission_id = ?", permID).Count(&count).Error
	return count, err
}
