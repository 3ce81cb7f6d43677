package middleware

import (
	"context"
	"net/http"
	"strings"

	"shopapi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authorizer answers role and permission checks for a principal. Checks
// hit the store on every request so a revocation takes effect on the
// very next call.
type Authorizer interface {
	HasRoleSlug(ctx context.Context, userID uuid.UUID, slug string) (bool, error)
	HasPermissionSlug(ctx context.Context, userID uuid.UUID, slug string) (bool, error)
}

// RequireRole allows the request through when the principal holds at
// least one of the named roles. Alternatives may arrive as separate
// arguments or packed into one expression with '|'
// ("admin|super-admin"); either way they form a single OR set. There is
// no AND composition.
func RequireRole(authz Authorizer, expressions ...string) gin.HandlerFunc {
	return requireAccess(authz, expressions, Authorizer.HasRoleSlug)
}

// RequirePermission is RequireRole for permission slugs: holding any one
// alternative ("edit-products|manage-catalog") is enough.
func RequirePermission(authz Authorizer, expressions ...string) gin.HandlerFunc {
	return requireAccess(authz, expressions, Authorizer.HasPermissionSlug)
}

func requireAccess(authz Authorizer, expressions []string, check func(Authorizer, context.Context, uuid.UUID, string) (bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		for _, alt := range flatten(expressions) {
			ok, err := check(authz, c.Request.Context(), userID, alt)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify access"))
				return
			}
			if ok {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// flatten splits every expression on '|' and trims, yielding the full
// alternative set the guard ORs over.
func flatten(expressions []string) []string {
	alts := make([]string, 0, len(expressions))
	for _, expr := range expressions {
		for _, alt := range strings.Split(expr, "|") {
			if alt = strings.TrimSpace(alt); alt != "" {
				alts = append(alts, alt)
			}
		}
	}
	return alts
}
