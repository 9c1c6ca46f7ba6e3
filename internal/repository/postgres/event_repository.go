package postgres

import (
	"context"
	"fmt"
	"time"

	"basketReco/business/reco"
	"basketReco/domain"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

var _ reco.ClickStatsRepository = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) SaveEvent(ctx context.Context, event domain.RecommendationEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save recommendation event: %w", err)
	}

	return nil
}

// ClickStats aggregates impressions and clicks per product since the given time.
func (r *EventRepository) ClickStats(ctx context.Context, shop string, since time.Time) (map[string]domain.ClickStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.ClickStat
	err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationEvent{}).
		Select(
			"product_id, "+
				"COUNT(*) FILTER (WHERE event_type = ?) AS impressions, "+
				"COUNT(*) FILTER (WHERE event_type = ?) AS clicks",
			domain.EventImpression, domain.EventClick,
		).
		Where("shop = ? AND created_at >= ?", shop, since).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate click stats: %w", err)
	}

	out := make(map[string]domain.ClickStat, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}
