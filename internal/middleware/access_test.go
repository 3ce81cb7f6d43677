package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeAuthorizer struct {
	roles map[string]bool
	perms map[string]bool
}

func (f fakeAuthorizer) HasRoleSlug(_ context.Context, _ uuid.UUID, slug string) (bool, error) {
	return f.roles[slug], nil
}

func (f fakeAuthorizer) HasPermissionSlug(_ context.Context, _ uuid.UUID, slug string) (bool, error) {
	return f.perms[slug], nil
}

func performGuarded(t *testing.T, guard gin.HandlerFunc, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/guarded",
		func(c *gin.Context) {
			if authed {
				c.Set(ContextUserID, uuid.New())
			}
			c.Next()
		},
		guard,
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequirePermissionAllowsAnyAlternative(t *testing.T) {
	authz := fakeAuthorizer{perms: map[string]bool{"manage-catalog": true}}

	// Holding either alternative of the expression is enough
	w := performGuarded(t, RequirePermission(authz, "edit-products|manage-catalog"), true)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequirePermissionDeniesWithoutGrant(t *testing.T) {
	authz := fakeAuthorizer{perms: map[string]bool{}}

	w := performGuarded(t, RequirePermission(authz, "edit-products|manage-catalog"), true)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequirePermissionSeparateArgumentsFormOneORSet(t *testing.T) {
	// Variadic arguments and pipe segments flatten into a single
	// alternative set; holding any one of them is enough
	authz := fakeAuthorizer{perms: map[string]bool{"manage-catalog": true}}

	w := performGuarded(t, RequirePermission(authz, "edit-products", "manage-catalog"), true)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w = performGuarded(t, RequirePermission(authz, "edit-products", "delete-products"), true)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	// Mixed forms behave identically
	w = performGuarded(t, RequirePermission(authz, "edit-products|delete-products", "manage-catalog"), true)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	authz := fakeAuthorizer{perms: map[string]bool{"view-orders": true}}

	// No principal in context means 401, never 403
	w := performGuarded(t, RequirePermission(authz, "view-orders"), false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireRolePipeExpression(t *testing.T) {
	authz := fakeAuthorizer{roles: map[string]bool{"super-admin": true}}

	w := performGuarded(t, RequireRole(authz, "admin|super-admin"), true)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w = performGuarded(t, RequireRole(authz, "admin"), true)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequireRoleTrimsWhitespaceInExpression(t *testing.T) {
	authz := fakeAuthorizer{roles: map[string]bool{"admin": true}}

	w := performGuarded(t, RequireRole(authz, " admin | super-admin "), true)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
