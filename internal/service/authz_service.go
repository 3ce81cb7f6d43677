package service

import (
	"context"
	"encoding/json"
	"errors"

	"shopapi/internal/model"
	"shopapi/internal/repository"
	"shopapi/pkg/apperr"
	"shopapi/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthzService is the authorization engine: every access decision is
// mediated through roles (no direct user→permission grants), so each
// grant traces back to a role assignment.
type AuthzService interface {
	HasRole(ctx context.Context, userID uuid.UUID, ref Ref) (bool, error)
	HasPermission(ctx context.Context, userID uuid.UUID, ref Ref) (bool, error)
	HasAnyRole(ctx context.Context, userID uuid.UUID, refs []Ref) (bool, error)
	HasAllRoles(ctx context.Context, userID uuid.UUID, refs []Ref) (bool, error)

	// UserPermissions returns the effective permission set: the union of
	// permissions across all held roles, deduplicated by permission id.
	UserPermissions(ctx context.Context, userID uuid.UUID) ([]model.Permission, error)

	// AssignRole and RevokeRole mutate the user↔role association.
	// Assigning an already-held role is a no-op. actorID is the
	// authenticated principal performing the change; guardrails apply
	// when the actor targets themselves or the last admin holder.
	AssignRole(ctx context.Context, actorID, userID uuid.UUID, ref Ref) error
	RevokeRole(ctx context.Context, actorID, userID uuid.UUID, ref Ref) error

	// AssignPermission and RevokePermission mutate the role↔permission
	// association, idempotently.
	AssignPermission(ctx context.Context, actorID, roleID uuid.UUID, ref Ref) error
	RevokePermission(ctx context.Context, actorID, roleID uuid.UUID, ref Ref) error
}

type authzService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	permRepo  repository.PermissionRepository
	auditRepo repository.AuditRepository
}

func NewAuthzService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	permRepo repository.PermissionRepository,
	auditRepo repository.AuditRepository,
) AuthzService {
	return &authzService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		auditRepo: auditRepo,
	}
}

// HasRole re-validates against the store on every call: there is no
// cached authorization state, so revocations take effect immediately.
func (s *authzService) HasRole(ctx context.Context, userID uuid.UUID, ref Ref) (bool, error) {
	roles, err := s.userRepo.ListRolesWithPermissions(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, r := range roles {
		if ref.matchesRole(r) {
			return true, nil
		}
	}
	return false, nil
}

// HasPermission is true iff any held role carries a matching permission.
// There is no permission hierarchy: the roles→permissions join is the
// whole decision.
func (s *authzService) HasPermission(ctx context.Context, userID uuid.UUID, ref Ref) (bool, error) {
	roles, err := s.userRepo.ListRolesWithPermissions(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, r := range roles {
		for _, p := range r.Permissions {
			if ref.matchesPermission(p) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *authzService) HasAnyRole(ctx context.Context, userID uuid.UUID, refs []Ref) (bool, error) {
	for _, ref := range refs {
		ok, err := s.HasRole(ctx, userID, ref)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *authzService) HasAllRoles(ctx context.Context, userID uuid.UUID, refs []Ref) (bool, error) {
	for _, ref := range refs {
		ok, err := s.HasRole(ctx, userID, ref)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *authzService) UserPermissions(ctx context.Context, userID uuid.UUID) ([]model.Permission, error) {
	roles, err := s.userRepo.ListRolesWithPermissions(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	perms := make([]model.Permission, 0)
	for _, r := range roles {
		for _, p := range r.Permissions {
			if !seen[p.ID] {
				seen[p.ID] = true
				perms = append(perms, p)
			}
		}
	}
	return perms, nil
}

func (s *authzService) AssignRole(ctx context.Context, actorID, userID uuid.UUID, ref Ref) error {
	role, err := s.resolveRole(ctx, ref)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindByIDWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	// Idempotent: assigning an already-held role is a no-op
	if user.HasRoleSlug(role.Slug) {
		return nil
	}

	if err := s.userRepo.AppendRole(ctx, user, role); err != nil {
		return err
	}

	s.audit(ctx, actorID, model.ActionAssignRole, user.ID.String(), user.Name, map[string]string{
		"role_id":   role.ID.String(),
		"role_slug": role.Slug,
	})
	return nil
}

func (s *authzService) RevokeRole(ctx context.Context, actorID, userID uuid.UUID, ref Ref) error {
	role, err := s.resolveRole(ctx, ref)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindByIDWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	if role.Slug == model.RoleSlugAdmin {
		if actorID == userID {
			return apperr.Conflict("Cannot revoke your own admin role")
		}
		if user.HasRoleSlug(model.RoleSlugAdmin) {
			count, err := s.userRepo.CountByRoleSlug(ctx, model.RoleSlugAdmin)
			if err != nil {
				return err
			}
			if count <= 1 {
				return apperr.Conflict("Cannot revoke the last admin role")
			}
		}
	}

	// Idempotent: revoking a role the user does not hold is a no-op
	if !user.HasRoleSlug(role.Slug) {
		return nil
	}

	if err := s.userRepo.RemoveRole(ctx, user, role); err != nil {
		return err
	}

	s.audit(ctx, actorID, model.ActionRevokeRole, user.ID.String(), user.Name, map[string]string{
		"role_id":   role.ID.String(),
		"role_slug": role.Slug,
	})
	return nil
}

func (s *authzService) AssignPermission(ctx context.Context, actorID, roleID uuid.UUID, ref Ref) error {
	perm, err := s.resolvePermission(ctx, ref)
	if err != nil {
		return err
	}

	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Role not found")
		}
		return err
	}

	for _, p := range role.Permissions {
		if p.ID == perm.ID {
			return nil
		}
	}

	if err := s.roleRepo.AppendPermission(ctx, role, perm); err != nil {
		return err
	}

	s.audit(ctx, actorID, model.ActionAssignPermission, role.ID.String(), role.Name, map[string]string{
		"permission_id":   perm.ID.String(),
		"permission_slug": perm.Slug,
	})
	return nil
}

func (s *authzService) RevokePermission(ctx context.Context, actorID, roleID uuid.UUID, ref Ref) error {
	perm, err := s.resolvePermission(ctx, ref)
	if err != nil {
		return err
	}

	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Role not found")
		}
		return err
	}

	held := false
	for _, p := range role.Permissions {
		if p.ID == perm.ID {
			held = true
			break
		}
	}
	if !held {
		return nil
	}

	if err := s.roleRepo.RemovePermission(ctx, role, perm); err != nil {
		return err
	}

	s.audit(ctx, actorID, model.ActionRevokePermission, role.ID.String(), role.Name, map[string]string{
		"permission_id":   perm.ID.String(),
		"permission_slug": perm.Slug,
	})
	return nil
}

func (s *authzService) resolveRole(ctx context.Context, ref Ref) (*model.Role, error) {
	var role *model.Role
	var err error
	if ref.byID {
		role, err = s.roleRepo.FindByID(ctx, ref.id)
	} else {
		role, err = s.roleRepo.FindBySlug(ctx, ref.slug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Role not found")
		}
		return nil, err
	}
	return role, nil
}

func (s *authzService) resolvePermission(ctx context.Context, ref Ref) (*model.Permission, error) {
	var perm *model.Permission
	var err error
	if ref.byID {
		perm, err = s.permRepo.FindByID(ctx, ref.id)
	} else {
		perm, err = s.permRepo.FindBySlug(ctx, ref.slug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Permission not found")
		}
		return nil, err
	}
	return perm, nil
}

// audit records the change best-effort; an audit write failure is logged
// and never fails the mutation it describes.
func (s *authzService) audit(ctx context.Context, actorID uuid.UUID, action, entityID, entityName string, details map[string]string) {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     &actorID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		logger.L().WithError(err).WithField("action", action).Warn("failed to write audit log")
	}
}
