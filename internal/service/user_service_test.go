package service

import (
	"context"
	"testing"

	"shopapi/internal/model"
	"shopapi/pkg/apperr"

	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	userRepo  *fakeUserRepo
	roleRepo  *fakeRoleRepo
	auditRepo *fakeAuditRepo
	users     UserService
}

func newUserFixture() *userFixture {
	roleRepo := newFakeRoleRepo()
	userRepo := newFakeUserRepo(roleRepo)
	roleRepo.users = userRepo
	auditRepo := &fakeAuditRepo{}
	return &userFixture{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		users:     NewUserService(userRepo, roleRepo, auditRepo),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	fx := newUserFixture()
	ctx := context.Background()

	tok, err := fx.users.Register(ctx, RegisterRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected a signed token")
	}

	// Stored password must be hashed, never plaintext
	stored, err := fx.userRepo.FindByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if stored.Password == "hunter2hunter2" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter2hunter2")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	if _, err := fx.users.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "hunter2hunter2"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = fx.users.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"})
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Fatalf("expected unauthenticated for bad password, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newUserFixture()
	ctx := context.Background()

	fx.userRepo.add(model.User{Name: "Ana", Email: "ana@example.com"})

	_, err := fx.users.Register(ctx, RegisterRequest{
		Name:     "Imposter",
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteOwnAccountBlocked(t *testing.T) {
	fx := newUserFixture()

	user := fx.userRepo.add(model.User{Name: "Ana", Email: "ana@example.com"})

	err := fx.users.DeleteUser(context.Background(), user.ID, user.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for self-deletion, got %v", err)
	}
}

func TestDeleteLastAdminBlocked(t *testing.T) {
	fx := newUserFixture()
	ctx := context.Background()

	admin := fx.roleRepo.add(model.Role{Name: "Admin", Slug: model.RoleSlugAdmin})
	only := fx.userRepo.add(model.User{Name: "Root", Email: "root@example.com"})
	fx.userRepo.grant(only.ID, admin.ID)
	actor := fx.userRepo.add(model.User{Name: "Ops", Email: "ops@example.com"})

	err := fx.users.DeleteUser(ctx, actor.ID, only.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict deleting the last admin, got %v", err)
	}

	// A second admin unblocks the deletion and the change is audited
	backup := fx.userRepo.add(model.User{Name: "Backup", Email: "backup@example.com"})
	fx.userRepo.grant(backup.ID, admin.ID)

	if err := fx.users.DeleteUser(ctx, actor.ID, only.ID); err != nil {
		t.Fatalf("DeleteUser with two admins: %v", err)
	}
	if fx.auditRepo.lastAction() != model.ActionDeleteUser {
		t.Error("expected audit entry for user deletion")
	}
}

func TestUpdateUserCannotDropOwnAdminRole(t *testing.T) {
	fx := newUserFixture()
	ctx := context.Background()

	admin := fx.roleRepo.add(model.Role{Name: "Admin", Slug: model.RoleSlugAdmin})
	support := fx.roleRepo.add(model.Role{Name: "Support", Slug: "support"})
	user := fx.userRepo.add(model.User{Name: "Root", Email: "root@example.com"})
	fx.userRepo.grant(user.ID, admin.ID)

	// Replacing own roles with a set that drops admin is rejected
	_, err := fx.users.UpdateUser(ctx, user.ID, user.ID, UpdateUserRequest{
		Roles: []string{support.ID.String()},
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict dropping own admin role, got %v", err)
	}

	// Keeping admin in the set is fine
	updated, err := fx.users.UpdateUser(ctx, user.ID, user.ID, UpdateUserRequest{
		Roles: []string{admin.ID.String(), support.ID.String()},
	})
	if err != nil {
		t.Fatalf("UpdateUser keeping admin: %v", err)
	}
	if len(updated.Roles) != 2 {
		t.Errorf("expected 2 roles, got %d", len(updated.Roles))
	}
}

func TestUpdateUserRoleSyncCannotDropLastAdmin(t *testing.T) {
	fx := newUserFixture()
	ctx := context.Background()

	admin := fx.roleRepo.add(model.Role{Name: "Admin", Slug: model.RoleSlugAdmin})
	editor := fx.roleRepo.add(model.Role{Name: "Editor", Slug: "editor"})
	only := fx.userRepo.add(model.User{Name: "Root", Email: "root@example.com"})
	fx.userRepo.grant(only.ID, admin.ID)

	// A different actor syncing the sole admin's roles may not leave
	// the system without any admin
	actor := fx.userRepo.add(model.User{Name: "Ops", Email: "ops@example.com"})
	_, err := fx.users.UpdateUser(ctx, actor.ID, only.ID, UpdateUserRequest{
		Roles: []string{editor.ID.String()},
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict dropping the last admin via role sync, got %v", err)
	}
	if got := fx.userRepo.rolesOf(only.ID); len(got) != 1 || got[0].Slug != model.RoleSlugAdmin {
		t.Errorf("admin role set must be untouched after the rejected sync, got %+v", got)
	}

	// With a second admin in place the same sync succeeds
	backup := fx.userRepo.add(model.User{Name: "Backup", Email: "backup@example.com"})
	fx.userRepo.grant(backup.ID, admin.ID)

	updated, err := fx.users.UpdateUser(ctx, actor.ID, only.ID, UpdateUserRequest{
		Roles: []string{editor.ID.String()},
	})
	if err != nil {
		t.Fatalf("UpdateUser with two admins: %v", err)
	}
	if len(updated.Roles) != 1 || updated.Roles[0].Slug != "editor" {
		t.Errorf("expected roles replaced with editor, got %+v", updated.Roles)
	}
}
