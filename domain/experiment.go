package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

const (
	ExperimentDraft     = "draft"
	ExperimentRunning   = "running"
	ExperimentCompleted = "completed"
)

const (
	AttributionSession  = "session"
	AttributionCustomer = "customer"
)

var (
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrInvalidTransition  = errors.New("invalid experiment status transition")
	ErrNoVariants         = errors.New("experiment has no variants")
)

type Experiment struct {
	ID              string     `gorm:"column:id;primaryKey" json:"id"`
	Shop            string     `gorm:"column:shop;not null" json:"shop"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	Surface         string     `gorm:"column:surface;not null;default:recommendations" json:"surface"`
	Status          string     `gorm:"column:status;not null;default:draft" json:"status"`
	AttributionKey  string     `gorm:"column:attribution_key;not null;default:session" json:"attributionKey"`
	StartAt         *time.Time `gorm:"column:start_at" json:"startAt,omitempty"`
	EndAt           *time.Time `gorm:"column:end_at" json:"endAt,omitempty"`
	ActiveVariantID *string    `gorm:"column:active_variant_id" json:"activeVariantId,omitempty"`
	Variants        []Variant  `gorm:"foreignKey:ExperimentID" json:"variants"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Experiment) TableName() string {
	return "experiments"
}

// InWindow reports whether now falls inside the optional start/end window.
func (e Experiment) InWindow(now time.Time) bool {
	if e.StartAt != nil && now.Before(*e.StartAt) {
		return false
	}
	if e.EndAt != nil && !now.Before(*e.EndAt) {
		return false
	}
	return true
}

type Variant struct {
	ID           string                            `gorm:"column:id;primaryKey" json:"id"`
	ExperimentID string                            `gorm:"column:experiment_id;not null" json:"-"`
	Name         string                            `gorm:"column:name;not null" json:"name"`
	IsControl    bool                              `gorm:"column:is_control;default:false" json:"isControl"`
	TrafficPct   float64                           `gorm:"column:traffic_pct" json:"trafficPct"`
	Config       datatypes.JSONType[VariantConfig] `gorm:"column:config;type:jsonb" json:"config"`
}

func (Variant) TableName() string {
	return "experiment_variants"
}

// VariantConfig is the small payload a variant applies to the recommendation
// pipeline. Zero values leave the shop settings untouched.
type VariantConfig struct {
	DiscountPct      float64 `json:"discountPct,omitempty"`
	LiftWeight       float64 `json:"liftWeight,omitempty"`
	PopularityWeight float64 `json:"popularityWeight,omitempty"`
	Mode             string  `json:"mode,omitempty"`
	ClickReranking   *bool   `json:"clickReranking,omitempty"`
}

type Assignment struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	ExperimentID string    `gorm:"column:experiment_id;not null;uniqueIndex:idx_assignment_unit" json:"experimentId"`
	UnitID       string    `gorm:"column:unit_id;not null;uniqueIndex:idx_assignment_unit" json:"unitId"`
	VariantID    string    `gorm:"column:variant_id;not null" json:"variantId"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Assignment) TableName() string {
	return "experiment_assignments"
}

// VariantAssignment is what the assignment endpoint returns.
type VariantAssignment struct {
	ExperimentID string        `json:"experimentId"`
	Variant      string        `json:"variant"`
	VariantID    string        `json:"variantId"`
	Config       VariantConfig `json:"config"`
}
