package service

import (
	"time"

	"shopapi/internal/model"

	"github.com/shopspring/decimal"
)

const timeLayout = time.RFC3339

// --- Shared response DTOs ---

type PermissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Module      string `json:"module,omitempty"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description string               `json:"description,omitempty"`
	IsActive    bool                 `json:"is_active"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type UserResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone,omitempty"`
	Address      string               `json:"address,omitempty"`
	City         string               `json:"city,omitempty"`
	State        string               `json:"state,omitempty"`
	Zip          string               `json:"zip,omitempty"`
	VerifyStatus string               `json:"verify_status"`
	Role         string               `json:"role"` // legacy single-role field
	Roles        []RoleResponse       `json:"roles"`
	Permissions  []PermissionResponse `json:"permissions"`
	CreatedAt    string               `json:"created_at"`
}

type OrderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Total           decimal.Decimal     `json:"total"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	BillingAddress  model.Address       `json:"billing_address"`
	ShippingAddress model.Address       `json:"shipping_address"`
	Notes           string              `json:"notes,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       string              `json:"created_at"`
}

type ProductResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Stock       int              `json:"stock"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   string           `json:"created_at"`
}

// --- Mappers ---

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Module:      p.Module,
	}
}

func toPermissionResponses(perms []model.Permission) []PermissionResponse {
	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res
}

func toRoleResponse(r model.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		IsActive:    r.IsActive,
		Permissions: toPermissionResponses(r.Permissions),
		CreatedAt:   r.CreatedAt.Format(timeLayout),
	}
}

func toUserResponse(u *model.User) UserResponse {
	roles := make([]RoleResponse, 0, len(u.Roles))
	seen := make(map[string]bool)
	perms := make([]PermissionResponse, 0)
	for _, r := range u.Roles {
		roles = append(roles, toRoleResponse(r))
		for _, p := range r.Permissions {
			id := p.ID.String()
			if !seen[id] {
				seen[id] = true
				perms = append(perms, toPermissionResponse(p))
			}
		}
	}

	return UserResponse{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Address:      u.Address,
		City:         u.City,
		State:        u.State,
		Zip:          u.Zip,
		VerifyStatus: u.VerifyStatus,
		Role:         u.LegacyRole,
		Roles:        roles,
		Permissions:  perms,
		CreatedAt:    u.CreatedAt.Format(timeLayout),
	}
}

func toOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		items = append(items, item)
	}

	return OrderResponse{
		ID:              o.ID.String(),
		UserID:          o.UserID.String(),
		Total:           o.Total,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		BillingAddress:  o.BillingAddress,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		Items:           items,
		CreatedAt:       o.CreatedAt.Format(timeLayout),
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt.Format(timeLayout),
	}
}
