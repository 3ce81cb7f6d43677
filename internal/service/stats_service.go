package service

import (
	"context"

	"shopapi/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers     int64            `json:"total_users"`
	TotalProducts  int64            `json:"total_products"`
	TotalOrders    int64            `json:"total_orders"`
	PendingOrders  int64            `json:"pending_orders"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
}

type StatsService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

// statsService aggregates directly over the database. The queries are
// read-only rollups, so it skips the repository layer.
type statsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) StatsService {
	return &statsService{db: db}
}

func (s *statsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		TotalRevenue:   decimal.Zero,
		OrdersByStatus: make(map[string]int64),
	}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&model.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.OrdersByStatus[row.Status] = row.Count
		if row.Status == model.OrderStatusPending {
			stats.PendingOrders = row.Count
		}
	}

	// Cancelled orders do not count toward revenue
	var revenue decimal.NullDecimal
	if err := db.Model(&model.Order{}).
		Select("sum(total)").
		Where("status <> ?", model.OrderStatusCancelled).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}

	return stats, nil
}
