package postgres

import (
	"context"
	"fmt"

	"basketReco/business/reco"
	"basketReco/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

var (
	_ reco.AvailabilityRepository = (*ProductRepository)(nil)
	_ reco.CatalogRepository      = (*ProductRepository)(nil)
)

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

// GetAvailability reads the local catalog mirror for the given product ids.
// Unknown ids are simply absent from the result.
func (r *ProductRepository) GetAvailability(ctx context.Context, shop string, productIDs []string) (map[string]domain.ProductAvailability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(productIDs) == 0 {
		return map[string]domain.ProductAvailability{}, nil
	}

	var products []domain.Product
	err := r.DB.WithContext(ctx).
		Where("shop = ? AND product_id IN ?", shop, productIDs).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	out := make(map[string]domain.ProductAvailability, len(products))
	for _, p := range products {
		out[p.ProductID] = p.Availability()
	}
	return out, nil
}

// FindSimilar lists in-stock products sharing a category with any anchor,
// best sellers first.
func (r *ProductRepository) FindSimilar(ctx context.Context, shop string, anchorIDs []string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(anchorIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	categories := r.DB.
		Model(&domain.Product{}).
		Select("product_category").
		Where("shop = ? AND product_id IN ? AND product_category <> ''", shop, anchorIDs)

	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&domain.Product{}).
		Where("shop = ? AND available = ?", shop, true).
		Where("product_category IN (?)", categories).
		Where("product_id NOT IN ?", anchorIDs).
		Order("sales_count DESC").
		Order("product_id ASC").
		Limit(limit).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find similar products: %w", err)
	}

	return ids, nil
}
