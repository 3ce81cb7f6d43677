package service

import (
	"context"

	"github.com/google/uuid"
)

// SlugAuthorizer adapts AuthzService to the slug-only checks the access
// middleware needs.
type SlugAuthorizer struct {
	Authz AuthzService
}

func (a SlugAuthorizer) HasRoleSlug(ctx context.Context, userID uuid.UUID, slug string) (bool, error) {
	return a.Authz.HasRole(ctx, userID, BySlug(slug))
}

func (a SlugAuthorizer) HasPermissionSlug(ctx context.Context, userID uuid.UUID, slug string) (bool, error) {
	return a.Authz.HasPermission(ctx, userID, BySlug(slug))
}
