package service

import (
	"context"
	"testing"

	"shopapi/internal/model"
	"shopapi/pkg/apperr"

	"github.com/google/uuid"
)

func newPermFixture() (*fakePermRepo, *fakeRoleRepo, PermissionService) {
	roleRepo := newFakeRoleRepo()
	permRepo := newFakePermRepo(roleRepo)
	return permRepo, roleRepo, NewPermissionService(permRepo)
}

func TestCreatePermissionDerivesSlug(t *testing.T) {
	_, _, svc := newPermFixture()

	perm, err := svc.CreatePermission(context.Background(), CreatePermissionRequest{
		Name:   "Edit & Update Products",
		Module: "products",
	})
	if err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}
	if perm.Slug != "edit-update-products" {
		t.Errorf("slug = %q, want edit-update-products", perm.Slug)
	}
}

func TestCreatePermissionDuplicate(t *testing.T) {
	permRepo, _, svc := newPermFixture()
	ctx := context.Background()

	permRepo.add(model.Permission{Name: "View Users", Slug: "view-users"})

	_, err := svc.CreatePermission(ctx, CreatePermissionRequest{Name: "View Users"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ae := apperr.From(err)
	if ae.Fields["slug"] == "" {
		t.Errorf("expected slug uniqueness error, got %v", ae.Fields)
	}
}

func TestUpdatePermissionExcludesSelfFromUniqueness(t *testing.T) {
	permRepo, _, svc := newPermFixture()
	ctx := context.Background()

	perm := permRepo.add(model.Permission{Name: "View Users", Slug: "view-users"})

	// Re-saving the same name must not trip the uniqueness check
	desc := "Read access to the user list"
	updated, err := svc.UpdatePermission(ctx, perm.ID, UpdatePermissionRequest{Description: &desc})
	if err != nil {
		t.Fatalf("UpdatePermission: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("description not updated")
	}
}

func TestDeletePermissionInUseBlocked(t *testing.T) {
	permRepo, roleRepo, svc := newPermFixture()
	ctx := context.Background()

	perm := permRepo.add(model.Permission{Name: "View Users", Slug: "view-users"})
	roleRepo.add(model.Role{Name: "Support", Slug: "support", Permissions: []model.Permission{*perm}})

	err := svc.DeletePermission(ctx, perm.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict while granted to a role, got %v", err)
	}

	// Once no role references it, deletion succeeds
	for id := range roleRepo.perms {
		delete(roleRepo.perms, id)
	}
	if err := svc.DeletePermission(ctx, perm.ID); err != nil {
		t.Fatalf("DeletePermission after revocation: %v", err)
	}
}

func TestDeleteUnknownPermission(t *testing.T) {
	_, _, svc := newPermFixture()

	err := svc.DeletePermission(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
