package experiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"basketReco/domain"
	"basketReco/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const defaultSurface = "recommendations"

type VariantInput struct {
	Name       string               `json:"name" validate:"required"`
	IsControl  bool                 `json:"isControl"`
	TrafficPct float64              `json:"trafficPct" validate:"gte=0"`
	Config     domain.VariantConfig `json:"config"`
}

type CreateInput struct {
	Shop           string         `json:"shop" validate:"required"`
	Name           string         `json:"name" validate:"required"`
	Surface        string         `json:"surface"`
	AttributionKey string         `json:"attributionKey" validate:"omitempty,oneof=session customer"`
	StartAt        *time.Time     `json:"startAt"`
	EndAt          *time.Time     `json:"endAt"`
	Variants       []VariantInput `json:"variants" validate:"required,min=1,dive"`
}

// Create stores a new experiment in draft. Without an explicit control the
// first variant becomes control.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Experiment, error) {
	if len(in.Variants) == 0 {
		return domain.Experiment{}, domain.ErrNoVariants
	}
	if in.StartAt != nil && in.EndAt != nil && !in.EndAt.After(*in.StartAt) {
		return domain.Experiment{}, fmt.Errorf("endAt must be after startAt")
	}

	exp := domain.Experiment{
		ID:             uuid.NewString(),
		Shop:           in.Shop,
		Name:           strings.TrimSpace(in.Name),
		Surface:        in.Surface,
		Status:         domain.ExperimentDraft,
		AttributionKey: in.AttributionKey,
		StartAt:        in.StartAt,
		EndAt:          in.EndAt,
	}
	if exp.Surface == "" {
		exp.Surface = defaultSurface
	}
	if exp.AttributionKey == "" {
		exp.AttributionKey = domain.AttributionSession
	}

	hasControl := false
	for _, v := range in.Variants {
		hasControl = hasControl || v.IsControl
	}
	for i, v := range in.Variants {
		exp.Variants = append(exp.Variants, domain.Variant{
			ID:           uuid.NewString(),
			ExperimentID: exp.ID,
			Name:         v.Name,
			IsControl:    v.IsControl || (!hasControl && i == 0),
			TrafficPct:   v.TrafficPct,
			Config:       datatypes.NewJSONType(v.Config),
		})
	}

	if err := s.experiments.CreateExperiment(ctx, &exp); err != nil {
		return domain.Experiment{}, fmt.Errorf("create experiment: %w", err)
	}

	logger.Info("experiment_created", "experiment_id", exp.ID, "shop", exp.Shop, "variants", len(exp.Variants))
	return exp, nil
}

// Start moves a draft experiment to running.
func (s *Service) Start(ctx context.Context, id string) (domain.Experiment, error) {
	return s.transition(ctx, id, domain.ExperimentDraft, domain.ExperimentRunning, "")
}

// Complete freezes a running experiment. A non-empty winner becomes the
// variant every unit receives from then on.
func (s *Service) Complete(ctx context.Context, id, winnerVariantID string) (domain.Experiment, error) {
	return s.transition(ctx, id, domain.ExperimentRunning, domain.ExperimentCompleted, winnerVariantID)
}

func (s *Service) transition(ctx context.Context, id, from, to, winner string) (domain.Experiment, error) {
	exp, ok, err := s.experiments.GetExperiment(ctx, id)
	if err != nil {
		return domain.Experiment{}, fmt.Errorf("get experiment: %w", err)
	}
	if !ok {
		return domain.Experiment{}, domain.ErrExperimentNotFound
	}
	if exp.Status != from {
		return domain.Experiment{}, domain.ErrInvalidTransition
	}
	if to == domain.ExperimentRunning && len(exp.Variants) == 0 {
		return domain.Experiment{}, domain.ErrNoVariants
	}

	var active *string
	if winner != "" {
		if _, ok := findVariant(exp, winner); !ok {
			return domain.Experiment{}, domain.ErrVariantNotFound
		}
		active = &winner
	}

	updated, err := s.experiments.UpdateStatus(ctx, id, from, to, active)
	if err != nil {
		return domain.Experiment{}, fmt.Errorf("update experiment status: %w", err)
	}
	if !updated {
		// someone else moved it between the read and the write
		return domain.Experiment{}, domain.ErrInvalidTransition
	}

	exp.Status = to
	if active != nil {
		exp.ActiveVariantID = active
	}
	TransitionsTotal.WithLabelValues(to).Inc()
	logger.Info("experiment_transition", "experiment_id", id, "from", from, "to", to)
	return exp, nil
}
