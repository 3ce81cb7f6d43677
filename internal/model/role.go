package model

import (
	"time"

	"github.com/google/uuid"
)

// Reserved role slugs that can never be deleted
const (
	RoleSlugAdmin      = "admin"
	RoleSlugSuperAdmin = "super-admin"
)

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Slug        string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsReserved reports whether the role is one of the protected built-ins.
func (r *Role) IsReserved() bool {
	return r.Slug == RoleSlugAdmin || r.Slug == RoleSlugSuperAdmin
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"` // e.g. "view-products"
	Description string    `gorm:"type:text" json:"description"`
	Module      string    `gorm:"type:varchar(100);index" json:"module"` // "users", "roles", "products", "orders"...
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
