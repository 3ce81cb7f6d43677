package service

import (
	"context"
	"errors"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/pkg/apperr"
	slugpkg "shopapi/pkg/slug"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        *string  `json:"name"`
	Slug        *string  `json:"slug"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
	Permissions []string `json:"permissions"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context, page, limit int, filter repository.RoleFilter) ([]RoleResponse, int64, error)
	GetRole(ctx context.Context, id uuid.UUID) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	permRepo  repository.PermissionRepository
	txManager repository.TransactionManager
}

func NewRoleService(
	roleRepo repository.RoleRepository,
	permRepo repository.PermissionRepository,
	txManager repository.TransactionManager,
) RoleService {
	return &roleService{roleRepo: roleRepo, permRepo: permRepo, txManager: txManager}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context, page, limit int, filter repository.RoleFilter) ([]RoleResponse, int64, error) {
	roles, total, err := s.roleRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, total, nil
}

func (s *roleService) GetRole(ctx context.Context, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByIDWithPermissions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Role not found")
		}
		return nil, err
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	roleSlug := req.Slug
	if roleSlug == "" {
		roleSlug = slugpkg.Make(req.Name)
	}

	if err := s.checkUniqueness(ctx, req.Name, roleSlug, nil); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	role := model.Role{
		Name:        req.Name,
		Slug:        roleSlug,
		Description: req.Description,
		IsActive:    isActive,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roleRepo.Create(txCtx, &role); err != nil {
			return err
		}
		if req.Permissions != nil {
			perms, err := s.resolvePermissionIDs(txCtx, req.Permissions)
			if err != nil {
				return err
			}
			if err := s.roleRepo.ReplacePermissions(txCtx, &role, perms); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Role not found")
		}
		return nil, err
	}

	name := role.Name
	if req.Name != nil {
		name = *req.Name
	}

	// An explicit slug wins; otherwise a renamed role gets a re-derived one
	roleSlug := role.Slug
	if req.Slug != nil {
		roleSlug = *req.Slug
	} else if req.Name != nil {
		roleSlug = slugpkg.Make(*req.Name)
	}

	if err := s.checkUniqueness(ctx, name, roleSlug, &role.ID); err != nil {
		return nil, err
	}

	role.Name = name
	role.Slug = roleSlug
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roleRepo.Update(txCtx, role); err != nil {
			return err
		}
		if req.Permissions != nil {
			perms, err := s.resolvePermissionIDs(txCtx, req.Permissions)
			if err != nil {
				return err
			}
			if err := s.roleRepo.ReplacePermissions(txCtx, role, perms); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID)
}

func (s *roleService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Role not found")
		}
		return err
	}

	if role.IsReserved() {
		return apperr.Conflict("Cannot delete critical role")
	}

	userCount, err := s.roleRepo.CountUsers(ctx, role.ID)
	if err != nil {
		return err
	}
	if userCount > 0 {
		return apperr.Conflict("Cannot delete role that is assigned to users")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roleRepo.ClearPermissions(txCtx, role); err != nil {
			return err
		}
		return s.roleRepo.Delete(txCtx, role.ID)
	})
}

func (s *roleService) checkUniqueness(ctx context.Context, name, roleSlug string, excludeID *uuid.UUID) error {
	fields := make(map[string]string)

	taken, err := s.roleRepo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		fields["name"] = "The name has already been taken"
	}

	taken, err = s.roleRepo.SlugTaken(ctx, roleSlug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		fields["slug"] = "The slug has already been taken"
	}

	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

func (s *roleService) resolvePermissionIDs(ctx context.Context, ids []string) ([]model.Permission, error) {
	perms := make([]model.Permission, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validation(map[string]string{"permissions": "Invalid permission id '" + raw + "'"})
		}
		perm, err := s.permRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation(map[string]string{"permissions": "Unknown permission id '" + raw + "'"})
			}
			return nil, err
		}
		perms = append(perms, *perm)
	}
	return perms, nil
}
