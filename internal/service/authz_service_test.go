package service

import (
	"context"
	"testing"

	"shopapi/internal/model"

	"shopapi/pkg/apperr"

	"github.com/google/uuid"
)

type authzFixture struct {
	userRepo  *fakeUserRepo
	roleRepo  *fakeRoleRepo
	permRepo  *fakePermRepo
	auditRepo *fakeAuditRepo
	authz     AuthzService
}

func newAuthzFixture() *authzFixture {
	roleRepo := newFakeRoleRepo()
	userRepo := newFakeUserRepo(roleRepo)
	roleRepo.users = userRepo
	permRepo := newFakePermRepo(roleRepo)
	auditRepo := &fakeAuditRepo{}
	return &authzFixture{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		auditRepo: auditRepo,
		authz:     NewAuthzService(userRepo, roleRepo, permRepo, auditRepo),
	}
}

func TestHasPermissionAcrossRoles(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()

	view := fx.permRepo.add(model.Permission{Name: "View Orders", Slug: "view-orders"})
	edit := fx.permRepo.add(model.Permission{Name: "Edit Products", Slug: "edit-products"})

	support := fx.roleRepo.add(model.Role{Name: "Support", Slug: "support", IsActive: true, Permissions: []model.Permission{*view}})
	catalog := fx.roleRepo.add(model.Role{Name: "Catalog", Slug: "catalog", IsActive: true, Permissions: []model.Permission{*edit}})

	user := fx.userRepo.add(model.User{Name: "Dana", Email: "dana@example.com"})
	fx.userRepo.grant(user.ID, support.ID)
	fx.userRepo.grant(user.ID, catalog.ID)

	for _, slug := range []string{"view-orders", "edit-products"} {
		ok, err := fx.authz.HasPermission(ctx, user.ID, BySlug(slug))
		if err != nil {
			t.Fatalf("HasPermission(%s): %v", slug, err)
		}
		if !ok {
			t.Errorf("expected user to hold %s", slug)
		}
	}

	ok, err := fx.authz.HasPermission(ctx, user.ID, BySlug("delete-users"))
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Error("expected delete-users to be denied")
	}
}

func TestHasPermissionUnknownUser(t *testing.T) {
	fx := newAuthzFixture()

	ok, err := fx.authz.HasPermission(context.Background(), uuid.New(), BySlug("view-orders"))
	if err != nil {
		t.Fatalf("expected nil error for unknown user, got %v", err)
	}
	if ok {
		t.Error("unknown user must never be granted access")
	}
}

func TestUserPermissionsDeduplicates(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()

	shared := fx.permRepo.add(model.Permission{Name: "View Orders", Slug: "view-orders"})
	extra := fx.permRepo.add(model.Permission{Name: "Manage Orders", Slug: "manage-orders"})

	r1 := fx.roleRepo.add(model.Role{Name: "Support", Slug: "support", Permissions: []model.Permission{*shared}})
	r2 := fx.roleRepo.add(model.Role{Name: "Ops", Slug: "ops", Permissions: []model.Permission{*shared, *extra}})

	user := fx.userRepo.add(model.User{Name: "Kim", Email: "kim@example.com"})
	fx.userRepo.grant(user.ID, r1.ID)
	fx.userRepo.grant(user.ID, r2.ID)

	perms, err := fx.authz.UserPermissions(ctx, user.ID)
	if err != nil {
		t.Fatalf("UserPermissions: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected 2 unique permissions, got %d", len(perms))
	}
}

func TestUserPermissionsUnknownUser(t *testing.T) {
	fx := newAuthzFixture()

	_, err := fx.authz.UserPermissions(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestAssignRoleIdempotent(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()
	actor := uuid.New()

	fx.roleRepo.add(model.Role{Name: "Support", Slug: "support"})
	user := fx.userRepo.add(model.User{Name: "Lee", Email: "lee@example.com"})

	if err := fx.authz.AssignRole(ctx, actor, user.ID, BySlug("support")); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if err := fx.authz.AssignRole(ctx, actor, user.ID, BySlug("support")); err != nil {
		t.Fatalf("second AssignRole must be a no-op, got %v", err)
	}

	if got := len(fx.userRepo.roles[user.ID]); got != 1 {
		t.Errorf("expected exactly one role association, got %d", got)
	}
	if fx.auditRepo.lastAction() != model.ActionAssignRole {
		t.Errorf("expected audit entry for role assignment")
	}
}

func TestAssignRoleUnknownRole(t *testing.T) {
	fx := newAuthzFixture()
	user := fx.userRepo.add(model.User{Name: "Lee", Email: "lee@example.com"})

	err := fx.authz.AssignRole(context.Background(), uuid.New(), user.ID, BySlug("ghost"))
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found for unknown role, got %v", err)
	}
}

func TestRevokeRoleIdempotent(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()
	actor := uuid.New()

	fx.roleRepo.add(model.Role{Name: "Support", Slug: "support"})
	user := fx.userRepo.add(model.User{Name: "Lee", Email: "lee@example.com"})

	// Revoking an unheld role is not an error
	if err := fx.authz.RevokeRole(ctx, actor, user.ID, BySlug("support")); err != nil {
		t.Fatalf("revoking unheld role must be a no-op, got %v", err)
	}
}

func TestRevokeOwnAdminRoleBlocked(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()

	admin := fx.roleRepo.add(model.Role{Name: "Admin", Slug: model.RoleSlugAdmin})
	user := fx.userRepo.add(model.User{Name: "Root", Email: "root@example.com"})
	fx.userRepo.grant(user.ID, admin.ID)

	err := fx.authz.RevokeRole(ctx, user.ID, user.ID, BySlug(model.RoleSlugAdmin))
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for self-admin-revocation, got %v", err)
	}
}

func TestRevokeLastAdminBlocked(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()

	admin := fx.roleRepo.add(model.Role{Name: "Admin", Slug: model.RoleSlugAdmin})
	only := fx.userRepo.add(model.User{Name: "Root", Email: "root@example.com"})
	fx.userRepo.grant(only.ID, admin.ID)

	actor := fx.userRepo.add(model.User{Name: "Other", Email: "other@example.com"})

	err := fx.authz.RevokeRole(ctx, actor.ID, only.ID, BySlug(model.RoleSlugAdmin))
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict when revoking the last admin, got %v", err)
	}

	// With a second admin present the revocation goes through
	second := fx.userRepo.add(model.User{Name: "Backup", Email: "backup@example.com"})
	fx.userRepo.grant(second.ID, admin.ID)

	if err := fx.authz.RevokeRole(ctx, actor.ID, only.ID, BySlug(model.RoleSlugAdmin)); err != nil {
		t.Fatalf("expected revocation to succeed with two admins, got %v", err)
	}
	if len(fx.userRepo.roles[only.ID]) != 0 {
		t.Error("expected role association removed")
	}
}

func TestAssignAndRevokePermission(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()
	actor := uuid.New()

	perm := fx.permRepo.add(model.Permission{Name: "View Orders", Slug: "view-orders"})
	role := fx.roleRepo.add(model.Role{Name: "Support", Slug: "support"})

	if err := fx.authz.AssignPermission(ctx, actor, role.ID, ByID(perm.ID)); err != nil {
		t.Fatalf("AssignPermission: %v", err)
	}
	if err := fx.authz.AssignPermission(ctx, actor, role.ID, ByID(perm.ID)); err != nil {
		t.Fatalf("second AssignPermission must be a no-op, got %v", err)
	}
	if got := len(fx.roleRepo.perms[role.ID]); got != 1 {
		t.Fatalf("expected one granted permission, got %d", got)
	}

	if err := fx.authz.RevokePermission(ctx, actor, role.ID, BySlug("view-orders")); err != nil {
		t.Fatalf("RevokePermission: %v", err)
	}
	if got := len(fx.roleRepo.perms[role.ID]); got != 0 {
		t.Fatalf("expected permission revoked, got %d remaining", got)
	}

	// Revocation takes effect immediately on the next check
	user := fx.userRepo.add(model.User{Name: "Lee", Email: "lee@example.com"})
	fx.userRepo.grant(user.ID, role.ID)
	ok, err := fx.authz.HasPermission(ctx, user.ID, BySlug("view-orders"))
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if ok {
		t.Error("revoked permission must not be granted")
	}
}

func TestHasAnyAndAllRoles(t *testing.T) {
	fx := newAuthzFixture()
	ctx := context.Background()

	support := fx.roleRepo.add(model.Role{Name: "Support", Slug: "support"})
	fx.roleRepo.add(model.Role{Name: "Ops", Slug: "ops"})

	user := fx.userRepo.add(model.User{Name: "Lee", Email: "lee@example.com"})
	fx.userRepo.grant(user.ID, support.ID)

	refs := []Ref{BySlug("support"), BySlug("ops")}

	any, err := fx.authz.HasAnyRole(ctx, user.ID, refs)
	if err != nil {
		t.Fatalf("HasAnyRole: %v", err)
	}
	if !any {
		t.Error("expected HasAnyRole to pass with one held role")
	}

	all, err := fx.authz.HasAllRoles(ctx, user.ID, refs)
	if err != nil {
		t.Fatalf("HasAllRoles: %v", err)
	}
	if all {
		t.Error("expected HasAllRoles to fail with one missing role")
	}
}
