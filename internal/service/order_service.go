package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shopapi/internal/model"
	"shopapi/internal/notify"
	"shopapi/internal/repository"
	"shopapi/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	PaymentMethod   string             `json:"payment_method" binding:"required"`
	BillingAddress  model.Address      `json:"billing_address" binding:"required"`
	ShippingAddress model.Address      `json:"shipping_address" binding:"required"`
	Notes           string             `json:"notes"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Interface ---

type OrderService interface {
	// CreateOrder places an order for userID. Unit prices are snapshotted
	// from the product catalog at this moment; later catalog edits never
	// change the stored totals. The header and all line items are written
	// in a single transaction, and a notification is fired after commit.
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error)
	History(ctx context.Context, userID uuid.UUID, page, limit int) ([]OrderResponse, int64, error)
	// GetOrder returns the order only to its owner unless asAdmin is set.
	GetOrder(ctx context.Context, requesterID uuid.UUID, orderID uuid.UUID, asAdmin bool) (*OrderResponse, error)
	ListOrders(ctx context.Context, page, limit int, status string) ([]OrderResponse, int64, error)
	UpdateOrderStatus(ctx context.Context, actorID, orderID uuid.UUID, status string) (*OrderResponse, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    notify.Sink
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Sink,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}

	// Resolve every product up front; one unknown product aborts the
	// whole order before anything is written.
	items := make([]model.OrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, apperr.Validation(map[string]string{"items": "Invalid product id '" + it.ProductID + "'"})
		}

		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Product " + it.ProductID + " not found")
			}
			return nil, err
		}

		unitPrice := product.EffectivePrice()
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))

		items = append(items, model.OrderItem{
			ProductID: product.ID,
			Product:   product,
			Quantity:  it.Quantity,
			UnitPrice: unitPrice,
		})
	}

	order := model.Order{
		UserID:          userID,
		Total:           total,
		Status:          model.OrderStatusPending,
		PaymentMethod:   req.PaymentMethod,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Items:           items,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.orderRepo.Create(txCtx, &order)
	})
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: the order succeeds whether or not anyone is told
	go s.notifier.Send(context.Background(), orderMessage(&order, user))

	resp := toOrderResponse(&order)
	return &resp, nil
}

func (s *orderService) History(ctx context.Context, userID uuid.UUID, page, limit int) ([]OrderResponse, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toOrderResponses(orders), total, nil
}

func (s *orderService) GetOrder(ctx context.Context, requesterID uuid.UUID, orderID uuid.UUID, asAdmin bool) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}

	if !asAdmin && order.UserID != requesterID {
		// Hidden rather than forbidden: do not leak that the order exists
		return nil, apperr.NotFound("Order not found")
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int, status string) ([]OrderResponse, int64, error) {
	if status != "" && !model.ValidOrderStatus(status) {
		return nil, 0, apperr.Validation(map[string]string{"status": "Invalid order status '" + status + "'"})
	}

	orders, total, err := s.orderRepo.List(ctx, page, limit, status)
	if err != nil {
		return nil, 0, err
	}
	return toOrderResponses(orders), total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, actorID, orderID uuid.UUID, status string) (*OrderResponse, error) {
	if !model.ValidOrderStatus(status) {
		return nil, apperr.Validation(map[string]string{"status": "Invalid order status '" + status + "'"})
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}

	previous := order.Status
	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	payload, _ := json.Marshal(map[string]string{"from": previous, "to": status})
	entry := &model.AuditLog{
		UserID:     &actorID,
		Action:     model.ActionUpdateOrderStatus,
		EntityID:   order.ID.String(),
		EntityName: "order",
		Details:    string(payload),
	}
	_ = s.auditRepo.Log(ctx, entry)

	resp := toOrderResponse(order)
	return &resp, nil
}

func toOrderResponses(orders []model.Order) []OrderResponse {
	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res
}

// orderMessage builds the HTML notification body for a new order.
func orderMessage(order *model.Order, user *model.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>New order placed</b>\n")
	fmt.Fprintf(&b, "Order: <code>%s</code>\n", order.ID)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", user.Name, user.Email)
	fmt.Fprintf(&b, "Payment: %s\n", order.PaymentMethod)
	fmt.Fprintf(&b, "Total: %s\n\n", order.Total.StringFixed(2))
	for _, it := range order.Items {
		name := it.ProductID.String()
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Fprintf(&b, "• %s x%d @ %s\n", name, it.Quantity, it.UnitPrice.StringFixed(2))
	}
	return b.String()
}
