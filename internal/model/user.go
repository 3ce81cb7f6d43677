package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VerifyStatus values for User accounts
const (
	VerifyStatusPending   = "pending"
	VerifyStatusCompleted = "completed"
)

// User represents the central user entity for logic and database structure
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	Address      string         `gorm:"type:varchar(500)" json:"address"`
	City         string         `gorm:"type:varchar(100)" json:"city"`
	State        string         `gorm:"type:varchar(100)" json:"state"`
	Zip          string         `gorm:"type:varchar(20)" json:"zip"`
	Avatar       string         `gorm:"type:varchar(500)" json:"avatar"`
	Images       datatypes.JSON `gorm:"type:jsonb" json:"images"`
	VerifyStatus string         `gorm:"type:varchar(20);default:'pending'" json:"verify_status"`
	// LegacyRole mirrors the old single-role column. Kept for backward
	// compatibility with existing clients; role checks go through Roles.
	LegacyRole string         `gorm:"column:role;type:varchar(50);default:'user'" json:"role"`
	Roles      []Role         `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// HasRoleSlug reports whether one of the preloaded roles carries the slug.
// Authorization decisions go through the authz service, which reloads
// associations; this helper only inspects what is already in memory.
func (u *User) HasRoleSlug(slug string) bool {
	for _, r := range u.Roles {
		if r.Slug == slug {
			return true
		}
	}
	return false
}
