package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product represents an item in the catalog
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string           `gorm:"type:text" json:"description"`
	Price       decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	SalePrice   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"sale_price"`
	Stock       int              `gorm:"type:int;default:0;not null" json:"stock"`
	Images      datatypes.JSON   `gorm:"type:jsonb" json:"images"`
	IsActive    bool             `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// EffectivePrice returns the sale price when one is set, otherwise the
// base price. Order lines snapshot this value at creation time.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
