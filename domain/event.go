package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventImpression = "impression"
	EventClick      = "click"
)

// RecommendationEvent is an impression or click on a recommended product.
type RecommendationEvent struct {
	ID        string            `gorm:"column:id;primaryKey" json:"id"`
	Shop      string            `gorm:"column:shop;not null" json:"shop"`
	ProductID string            `gorm:"column:product_id;not null" json:"productId"`
	EventType string            `gorm:"column:event_type;not null" json:"eventType"`
	UnitID    string            `gorm:"column:unit_id" json:"unitId"`
	VariantID string            `gorm:"column:variant_id" json:"variantId"`
	Context   datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (RecommendationEvent) TableName() string {
	return "recommendation_events"
}

type ClickStat struct {
	ProductID   string `gorm:"column:product_id"`
	Impressions int64  `gorm:"column:impressions"`
	Clicks      int64  `gorm:"column:clicks"`
}
