package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"basketReco/business/experiment"
	"basketReco/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExperimentRepository struct {
	DB *gorm.DB
}

var (
	_ experiment.ExperimentRepository = (*ExperimentRepository)(nil)
	_ experiment.AssignmentRepository = (*ExperimentRepository)(nil)
)

func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{DB: db}
}

// ---- Experiments ----

func (r *ExperimentRepository) ListByShop(ctx context.Context, shop string, statuses ...string) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).
		Preload("Variants").
		Where("shop = ?", shop)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var exps []domain.Experiment
	if err := q.Order("created_at ASC").Find(&exps).Error; err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	return exps, nil
}

func (r *ExperimentRepository) GetExperiment(ctx context.Context, id string) (domain.Experiment, bool, error) {
	var exp domain.Experiment

	err := r.DB.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Experiment{}, false, nil
	}
	if err != nil {
		return domain.Experiment{}, false, fmt.Errorf("failed to get experiment: %w", err)
	}

	return exp, true, nil
}

// CreateExperiment inserts the experiment and its variants in one transaction.
func (r *ExperimentRepository) CreateExperiment(ctx context.Context, exp *domain.Experiment) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(exp).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}
	return nil
}

func (r *ExperimentRepository) UpdateStatus(ctx context.Context, id, from, to string, activeVariantID *string) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if activeVariantID != nil {
		updates["active_variant_id"] = *activeVariantID
	}

	res := r.DB.WithContext(ctx).
		Model(&domain.Experiment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update experiment status: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// ---- Assignments ----

func (r *ExperimentRepository) FindAssignment(ctx context.Context, experimentID, unitID string) (domain.Assignment, bool, error) {
	var a domain.Assignment

	err := r.DB.WithContext(ctx).
		Where("experiment_id = ? AND unit_id = ?", experimentID, unitID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Assignment{}, false, nil
	}
	if err != nil {
		return domain.Assignment{}, false, fmt.Errorf("failed to find assignment: %w", err)
	}

	return a, true, nil
}

// CreateAssignment inserts once per (experiment, unit). A row that already
// exists is reported as gorm.ErrDuplicatedKey.
func (r *ExperimentRepository) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "experiment_id"}, {Name: "unit_id"}},
			DoNothing: true,
		}).
		Create(&a)
	if res.Error != nil {
		return fmt.Errorf("failed to create assignment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("assignment %s/%s: %w", a.ExperimentID, a.UnitID, gorm.ErrDuplicatedKey)
	}
	return nil
}
