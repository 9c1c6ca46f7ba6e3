package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"basketReco/business/reco"
	"basketReco/domain"

	"gorm.io/gorm"
)

type SettingsRepository struct {
	DB *gorm.DB
}

var _ reco.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) GetSettings(ctx context.Context, shop string) (domain.ShopSettings, bool, error) {
	var row domain.ShopSettings

	err := r.DB.WithContext(ctx).
		Where("shop = ?", shop).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ShopSettings{}, false, nil
	}
	if err != nil {
		return domain.ShopSettings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}

	return row, true, nil
}

// TouchHeartbeat records the last time the shop was served. It is the only
// settings column this service writes.
func (r *SettingsRepository) TouchHeartbeat(ctx context.Context, shop string, at time.Time) error {
	err := r.DB.WithContext(ctx).
		Model(&domain.ShopSettings{}).
		Where("shop = ?", shop).
		UpdateColumn("last_recommendation_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}
