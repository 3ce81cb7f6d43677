package database

import (
	"shopapi/internal/model"
	"shopapi/pkg/logger"

	"gorm.io/gorm"
)

type seedPermission struct {
	Name   string
	Slug   string
	Module string
}

// defaultPermissions is the permission catalog the route guards are
// built against.
var defaultPermissions = []seedPermission{
	{"View Users", "view-users", "users"},
	{"Create Users", "create-users", "users"},
	{"Edit Users", "edit-users", "users"},
	{"Delete Users", "delete-users", "users"},
	{"Assign Roles", "assign-roles", "users"},

	{"View Roles", "view-roles", "roles"},
	{"Manage Roles", "manage-roles", "roles"},
	{"View Permissions", "view-permissions", "roles"},
	{"Manage Permissions", "manage-permissions", "roles"},

	{"Create Products", "create-products", "products"},
	{"Edit Products", "edit-products", "products"},
	{"Delete Products", "delete-products", "products"},
	{"Manage Catalog", "manage-catalog", "products"},

	{"View Orders", "view-orders", "orders"},
	{"Manage Orders", "manage-orders", "orders"},

	{"View Audit Logs", "view-audit-logs", "system"},
	{"View Dashboard", "view-dashboard", "system"},
}

// Seed makes sure the reserved roles exist and hold the full permission
// catalog. It is idempotent and safe to run on every boot.
func Seed(db *gorm.DB) error {
	perms := make([]model.Permission, 0, len(defaultPermissions))
	for _, p := range defaultPermissions {
		var perm model.Permission
		err := db.Where(model.Permission{Slug: p.Slug}).
			Attrs(model.Permission{Name: p.Name, Module: p.Module}).
			FirstOrCreate(&perm).Error
		if err != nil {
			return err
		}
		perms = append(perms, perm)
	}

	for _, slug := range []string{model.RoleSlugAdmin, model.RoleSlugSuperAdmin} {
		var role model.Role
		err := db.Where(model.Role{Slug: slug}).
			Attrs(model.Role{Name: roleNameForSlug(slug), IsActive: true}).
			FirstOrCreate(&role).Error
		if err != nil {
			return err
		}

		if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}

	logger.L().WithField("permissions", len(perms)).Info("seeded reserved roles and permission catalog")
	return nil
}

func roleNameForSlug(slug string) string {
	switch slug {
	case model.RoleSlugAdmin:
		return "Admin"
	case model.RoleSlugSuperAdmin:
		return "Super Admin"
	}
	return slug
}
