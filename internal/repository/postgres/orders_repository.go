package postgres

import (
	"context"
	"fmt"

	"basketReco/business/reco"
	"basketReco/domain"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	DB *gorm.DB
}

var _ reco.OrderHistoryRepository = (*OrdersRepository)(nil)

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

// RecentOrders returns the newest orders of a shop with their lines.
func (r *OrdersRepository) RecentOrders(ctx context.Context, shop string, limit int) ([]domain.HistoricalOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var orders []domain.HistoricalOrder
	err := r.DB.WithContext(ctx).
		Preload("Lines").
		Where("shop = ?", shop).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load order window: %w", err)
	}

	return orders, nil
}
