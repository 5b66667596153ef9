package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// Maintenance is the admin-invoked surface: option rebuilds run inline
// (manual, exclusive operation), vector rebuilds fan out through the
// embed queue so the worker pool absorbs them.
type Maintenance struct {
	assigner    *WeightAssigner
	discretizer *OptionDiscretizer
	queue       ports.EmbedQueue
	logger      *slog.Logger
}

func NewMaintenance(
	assigner *WeightAssigner,
	discretizer *OptionDiscretizer,
	queue ports.EmbedQueue,
	logger *slog.Logger,
) *Maintenance {
	return &Maintenance{
		assigner:    assigner,
		discretizer: discretizer,
		queue:       queue,
		logger:      logger,
	}
}

// RebuildOptions reassigns fund-side weights and regenerates all marker
// option sets from the active universe.
func (m *Maintenance) RebuildOptions(ctx context.Context) error {
	if err := m.assigner.AssignMarkerWeights(ctx); err != nil {
		return err
	}
	if err := m.discretizer.RebuildAll(ctx); err != nil {
		return err
	}
	m.logger.Info("marker options rebuilt")
	return nil
}

// RebuildVectors queues embedding work: per-scheme jobs for an explicit
// list, one universe job otherwise.
func (m *Maintenance) RebuildVectors(ctx context.Context, schemes []string) error {
	if len(schemes) == 0 {
		job := domain.EmbedJob{Kind: domain.EmbedJobAll}
		if err := m.queue.PublishEmbedJob(ctx, job); err != nil {
			return fmt.Errorf("publish universe rebuild: %w", err)
		}
		m.logger.Info("universe vector rebuild queued")
		return nil
	}

	for _, code := range schemes {
		if code == "" {
			return domain.WrapError(domain.ErrValidation, "rebuild vectors", fmt.Errorf("empty scheme code"))
		}
		job := domain.EmbedJob{Kind: domain.EmbedJobScheme, SchemeCode: code}
		if err := m.queue.PublishEmbedJob(ctx, job); err != nil {
			return fmt.Errorf("publish scheme rebuild %q: %w", code, err)
		}
	}
	m.logger.Info("scheme vector rebuilds queued", "count", len(schemes))
	return nil
}
