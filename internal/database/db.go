package database

import (
	"shopapi/internal/model"
	"shopapi/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models; the many2many join tables
	// (user_roles, role_permissions) are created alongside.
	err = db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.L().WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}
