package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ModeAlgorithmic = "algorithmic"
	ModeManual      = "manual"
	ModeHybrid      = "hybrid"
)

// ShopSettings is the raw settings row. Zero values mean "use the default";
// business/reco resolves it into a validated Settings struct.
type ShopSettings struct {
	Shop    string `gorm:"column:shop;primaryKey" json:"shop"`
	Enabled *bool  `gorm:"column:enabled" json:"enabled"`

	MaxResults       int                         `gorm:"column:max_results" json:"max_results"`
	Mode             string                      `gorm:"column:mode" json:"mode"`
	ManualProductIDs datatypes.JSONSlice[string] `gorm:"column:manual_product_ids;type:jsonb" json:"manual_product_ids"`

	FreeShippingThreshold float64 `gorm:"column:free_shipping_threshold" json:"free_shipping_threshold"`
	ThresholdSuggestions  bool    `gorm:"column:threshold_suggestions" json:"threshold_suggestions"`
	HideWhenThresholdMet  bool    `gorm:"column:hide_when_threshold_met" json:"hide_when_threshold_met"`

	PriceGapEnabled *bool   `gorm:"column:price_gap_enabled" json:"price_gap_enabled"`
	PriceGapMin     float64 `gorm:"column:price_gap_min" json:"price_gap_min"`
	PriceGapMax     float64 `gorm:"column:price_gap_max" json:"price_gap_max"`

	DiversityStemParts int   `gorm:"column:diversity_stem_parts" json:"diversity_stem_parts"`
	CatalogFallback    *bool `gorm:"column:catalog_fallback" json:"catalog_fallback"`
	ClickReranking     *bool `gorm:"column:click_reranking" json:"click_reranking"`

	HalfLifeDays float64 `gorm:"column:half_life_days" json:"half_life_days"`
	OrderWindow  int     `gorm:"column:order_window" json:"order_window"`

	LiftWeight       float64 `gorm:"column:lift_weight" json:"lift_weight"`
	PopularityWeight float64 `gorm:"column:popularity_weight" json:"popularity_weight"`
	LiftCap          float64 `gorm:"column:lift_cap" json:"lift_cap"`
	PopularityBand   float64 `gorm:"column:popularity_band" json:"popularity_band"`

	CTRAlpha      float64 `gorm:"column:ctr_alpha" json:"ctr_alpha"`
	CTRBeta       float64 `gorm:"column:ctr_beta" json:"ctr_beta"`
	CTRWeight     float64 `gorm:"column:ctr_weight" json:"ctr_weight"`
	BaselineCTR   float64 `gorm:"column:baseline_ctr" json:"baseline_ctr"`
	CTRWindowDays int     `gorm:"column:ctr_window_days" json:"ctr_window_days"`

	LastRecommendationAt *time.Time `gorm:"column:last_recommendation_at" json:"last_recommendation_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ShopSettings) TableName() string {
	return "shop_settings"
}
