package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants. Orders start as pending; every other status is
// reachable only through the explicit status-update operation. No
// transition graph is enforced (any status may move to any other).
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Address holds billing/shipping contact details embedded on an order
type Address struct {
	FirstName string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Email     string `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`
	Address   string `gorm:"type:varchar(500)" json:"address"`
	City      string `gorm:"type:varchar(100)" json:"city"`
	State     string `gorm:"type:varchar(100)" json:"state"`
	ZipCode   string `gorm:"type:varchar(20)" json:"zip_code"`
	Country   string `gorm:"type:varchar(100);not null" json:"country"`
}

// Order represents a placed order with its snapshot total
type Order struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	// Total is computed once at creation from snapshot unit prices and is
	// never re-derived from live product prices.
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status          string          `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentMethod   string          `gorm:"type:varchar(100);not null" json:"payment_method"`
	BillingAddress  Address         `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem represents a line item within an Order
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"type:int;not null" json:"quantity"`
	// UnitPrice is the product's price captured at order time.
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}
