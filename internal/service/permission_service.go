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

type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Module      string `json:"module"`
}

type UpdatePermissionRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Module      *string `json:"module"`
}

// --- Interface ---

type PermissionService interface {
	ListPermissions(ctx context.Context, page, limit int, filter repository.PermissionFilter) ([]PermissionResponse, int64, error)
	GetPermission(ctx context.Context, id uuid.UUID) (*PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	UpdatePermission(ctx context.Context, id uuid.UUID, req UpdatePermissionRequest) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, id uuid.UUID) error
}

type permissionService struct {
	permRepo repository.PermissionRepository
}

func NewPermissionService(permRepo repository.PermissionRepository) PermissionService {
	return &permissionService{permRepo: permRepo}
}

// --- Implementation ---

func (s *permissionService) ListPermissions(ctx context.Context, page, limit int, filter repository.PermissionFilter) ([]PermissionResponse, int64, error) {
	perms, total, err := s.permRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, err
	}
	return toPermissionResponses(perms), total, nil
}

func (s *permissionService) GetPermission(ctx context.Context, id uuid.UUID) (*PermissionResponse, error) {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Permission not found")
		}
		return nil, err
	}
	resp := toPermissionResponse(*perm)
	return &resp, nil
}

func (s *permissionService) CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error) {
	permSlug := req.Slug
	if permSlug == "" {
		permSlug = slugpkg.Make(req.Name)
	}

	if err := s.checkUniqueness(ctx, req.Name, permSlug, nil); err != nil {
		return nil, err
	}

	perm := model.Permission{
		Name:        req.Name,
		Slug:        permSlug,
		Description: req.Description,
		Module:      req.Module,
	}
	if err := s.permRepo.Create(ctx, &perm); err != nil {
		return nil, err
	}

	resp := toPermissionResponse(perm)
	return &resp, nil
}

func (s *permissionService) UpdatePermission(ctx context.Context, id uuid.UUID, req UpdatePermissionRequest) (*PermissionResponse, error) {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Permission not found")
		}
		return nil, err
	}

	name := perm.Name
	if req.Name != nil {
		name = *req.Name
	}

	permSlug := perm.Slug
	if req.Slug != nil {
		permSlug = *req.Slug
	} else if req.Name != nil {
		permSlug = slugpkg.Make(*req.Name)
	}

	if err := s.checkUniqueness(ctx, name, permSlug, &perm.ID); err != nil {
		return nil, err
	}

	perm.Name = name
	perm.Slug = permSlug
	if req.Description != nil {
		perm.Description = *req.Description
	}
	if req.Module != nil {
		perm.Module = *req.Module
	}

	if err := s.permRepo.Update(ctx, perm); err != nil {
		return nil, err
	}

	resp := toPermissionResponse(*perm)
	return &resp, nil
}

func (s *permissionService) DeletePermission(ctx context.Context, id uuid.UUID) error {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Permission not found")
		}
		return err
	}

	roleCount, err := s.permRepo.CountRoles(ctx, perm.ID)
	if err != nil {
		return err
	}
	if roleCount > 0 {
		return apperr.Conflict("Cannot delete permission that is assigned to roles")
	}

	return s.permRepo.Delete(ctx, perm.ID)
}

func (s *permissionService) checkUniqueness(ctx context.Context, name, permSlug string, excludeID *uuid.UUID) error {
	fields := make(map[string]string)

	taken, err := s.permRepo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		fields["name"] = "The name has already been taken"
	}

	taken, err = s.permRepo.SlugTaken(ctx, permSlug, excludeID)
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
