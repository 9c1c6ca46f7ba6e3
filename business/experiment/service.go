package experiment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"basketReco/domain"
	"basketReco/pkg/logger"

	"github.com/google/uuid"
)

// ---- Repository interfaces ----

type ExperimentRepository interface {
	// ListByShop returns the shop's experiments with variants loaded.
	ListByShop(ctx context.Context, shop string, statuses ...string) ([]domain.Experiment, error)
	GetExperiment(ctx context.Context, id string) (domain.Experiment, bool, error)
	CreateExperiment(ctx context.Context, exp *domain.Experiment) error
	// UpdateStatus moves an experiment from one status to another and reports
	// whether a row matched the expected current status.
	UpdateStatus(ctx context.Context, id, from, to string, activeVariantID *string) (bool, error)
}

type AssignmentRepository interface {
	FindAssignment(ctx context.Context, experimentID, unitID string) (domain.Assignment, bool, error)
	CreateAssignment(ctx context.Context, a domain.Assignment) error
}

// ---- Service ----

type Service struct {
	experiments ExperimentRepository
	assignments AssignmentRepository
	bucketer    Bucketer
	now         func() time.Time
}

func NewService(experiments ExperimentRepository, assignments AssignmentRepository, seed uint32, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		experiments: experiments,
		assignments: assignments,
		bucketer:    NewBucketer(seed),
		now:         now,
	}
}

// ListActive returns the shop's running experiments.
func (s *Service) ListActive(ctx context.Context, shop string) ([]domain.Experiment, error) {
	exps, err := s.experiments.ListByShop(ctx, shop, domain.ExperimentRunning)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}

	now := s.now()
	out := make([]domain.Experiment, 0, len(exps))
	for _, e := range exps {
		if e.InWindow(now) {
			e.Variants = orderedVariants(e.Variants)
			out = append(out, e)
		}
	}
	return out, nil
}

// Assign returns the unit's variant and records the assignment once while
// the experiment is running. Completed experiments serve their frozen winner;
// drafts and experiments outside their window serve control without writing.
func (s *Service) Assign(ctx context.Context, experimentID, unitID string) (domain.VariantAssignment, error) {
	exp, ok, err := s.experiments.GetExperiment(ctx, experimentID)
	if err != nil {
		return domain.VariantAssignment{}, fmt.Errorf("get experiment: %w", err)
	}
	if !ok {
		return domain.VariantAssignment{}, domain.ErrExperimentNotFound
	}
	if len(exp.Variants) == 0 {
		return domain.VariantAssignment{}, domain.ErrNoVariants
	}

	if v, handled := s.fixedVariant(exp); handled {
		return toAssignment(exp, v), nil
	}

	existing, found, err := s.assignments.FindAssignment(ctx, exp.ID, unitID)
	if err != nil {
		logger.Warn("experiment_assignment_lookup_failed", "experiment_id", exp.ID, "error", err)
	} else if found {
		if v, ok := findVariant(exp, existing.VariantID); ok {
			AssignmentsTotal.WithLabelValues("existing").Inc()
			return toAssignment(exp, v), nil
		}
	}

	v, err := s.bucketer.Pick(exp, unitID)
	if err != nil {
		return domain.VariantAssignment{}, err
	}

	if !found {
		v = s.persist(ctx, exp, unitID, v)
	}
	return toAssignment(exp, v), nil
}

// Resolve picks the variant a unit sees on a surface without persisting it.
// A running experiment wins over a completed one with a frozen winner.
func (s *Service) Resolve(ctx context.Context, shop, surface, unitID string) (domain.VariantAssignment, bool, error) {
	exps, err := s.experiments.ListByShop(ctx, shop, domain.ExperimentRunning, domain.ExperimentCompleted)
	if err != nil {
		return domain.VariantAssignment{}, false, fmt.Errorf("list experiments: %w", err)
	}

	sort.SliceStable(exps, func(i, j int) bool {
		if exps[i].Status != exps[j].Status {
			return exps[i].Status == domain.ExperimentRunning
		}
		if exps[i].Status == domain.ExperimentCompleted {
			return exps[i].UpdatedAt.After(exps[j].UpdatedAt)
		}
		return exps[i].CreatedAt.Before(exps[j].CreatedAt)
	})

	now := s.now()
	for _, exp := range exps {
		if exp.Surface != surface || len(exp.Variants) == 0 {
			continue
		}

		switch exp.Status {
		case domain.ExperimentRunning:
			if !exp.InWindow(now) {
				continue
			}
			v, err := s.bucketer.Pick(exp, unitID)
			if err != nil {
				continue
			}
			return toAssignment(exp, v), true, nil

		case domain.ExperimentCompleted:
			if v, ok := frozenVariant(exp); ok {
				return toAssignment(exp, v), true, nil
			}
		}
	}

	return domain.VariantAssignment{}, false, nil
}

// fixedVariant covers every state where the hash is not consulted.
func (s *Service) fixedVariant(exp domain.Experiment) (domain.Variant, bool) {
	switch {
	case exp.Status == domain.ExperimentCompleted:
		AssignmentsTotal.WithLabelValues("frozen").Inc()
		v, _ := frozenVariant(exp)
		return v, true

	case exp.Status != domain.ExperimentRunning || !exp.InWindow(s.now()):
		AssignmentsTotal.WithLabelValues("inactive").Inc()
		v, _ := controlVariant(exp)
		return v, true
	}
	return domain.Variant{}, false
}

// frozenVariant is the winner of a completed experiment, or control when no
// winner was recorded.
func frozenVariant(exp domain.Experiment) (domain.Variant, bool) {
	if exp.ActiveVariantID != nil {
		if v, ok := findVariant(exp, *exp.ActiveVariantID); ok {
			return v, true
		}
	}
	return controlVariant(exp)
}

// persist stores the bucketed variant. A concurrent writer that got there
// first wins, and its stored variant is returned instead.
func (s *Service) persist(ctx context.Context, exp domain.Experiment, unitID string, v domain.Variant) domain.Variant {
	a := domain.Assignment{
		ID:           uuid.NewString(),
		ExperimentID: exp.ID,
		UnitID:       unitID,
		VariantID:    v.ID,
	}

	err := s.assignments.CreateAssignment(ctx, a)
	kind := ClassifyWriteError(err)
	if kind == WriteTransient {
		err = s.assignments.CreateAssignment(ctx, a)
		kind = ClassifyWriteError(err)
	}

	switch kind {
	case WriteOK:
		AssignmentsTotal.WithLabelValues("created").Inc()
	case WriteDuplicate:
		AssignmentsTotal.WithLabelValues("duplicate").Inc()
		if stored, ok, ferr := s.assignments.FindAssignment(ctx, exp.ID, unitID); ferr == nil && ok {
			if sv, ok := findVariant(exp, stored.VariantID); ok {
				return sv
			}
		}
	default:
		AssignmentsTotal.WithLabelValues("write_failed").Inc()
		logger.Warn("experiment_assignment_write_failed",
			"experiment_id", exp.ID,
			"kind", kind.String(),
			"error", err,
		)
	}
	return v
}
