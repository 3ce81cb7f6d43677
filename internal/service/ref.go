package service

import (
	"shopapi/internal/model"

	"github.com/google/uuid"
)

// Ref identifies a role or permission either by slug or by id. It
// replaces the old "string slug, numeric id, or resolved object"
// overloading with a single explicit lookup-then-act path.
type Ref struct {
	slug string
	id   uuid.UUID
	byID bool
}

// BySlug references a role or permission by its unique slug.
func BySlug(slug string) Ref {
	return Ref{slug: slug}
}

// ByID references a role or permission by its identifier.
func ByID(id uuid.UUID) Ref {
	return Ref{id: id, byID: true}
}

// String returns the reference in human-readable form for messages.
func (r Ref) String() string {
	if r.byID {
		return r.id.String()
	}
	return r.slug
}

func (r Ref) matchesRole(role model.Role) bool {
	if r.byID {
		return role.ID == r.id
	}
	return role.Slug == r.slug
}

func (r Ref) matchesPermission(perm model.Permission) bool {
	if r.byID {
		return perm.ID == r.id
	}
	return perm.Slug == r.slug
}
