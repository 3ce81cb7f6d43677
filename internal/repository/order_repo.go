package repository

import (
	"context"

	"shopapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	// Create persists the order header together with its nested line
	// items. Callers wrap it in TransactionManager.RunInTx so a line-item
	// failure rolls the header back too.
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Preload("Items.Product").
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Preload("Items.Product").Preload("User").
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}
