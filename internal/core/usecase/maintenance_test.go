package usecase

import (
	"context"
	"testing"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

func maintenanceFixture() (*Maintenance, *registryFake, *queueFake, *cacheFake) {
	questionnaire := &questionnaireFake{
		sections: []domain.Section{{ID: 10, Name: "risk"}},
	}
	registry := &registryFake{
		markers: []domain.Marker{
			{ID: 1, SectionID: 10, Name: "return_1y", SourceTable: "scheme_master", SourceColumn: "return_1y", Kind: domain.KindNumeric},
		},
	}
	schemes := &schemeRepoFake{rawByMarker: map[int64][]domain.RawValue{
		1: numericRaw(1, 2, 3),
	}}
	cache := &cacheFake{}
	queue := &queueFake{}

	assigner := NewWeightAssigner(questionnaire, registry)
	discretizer := NewOptionDiscretizer(registry, schemes, cache, testLogger())
	return NewMaintenance(assigner, discretizer, queue, testLogger()), registry, queue, cache
}

func TestRebuildOptionsRunsWeightsThenDiscretization(t *testing.T) {
	m, registry, _, cache := maintenanceFixture()

	if err := m.RebuildOptions(context.Background()); err != nil {
		t.Fatalf("RebuildOptions() error = %v", err)
	}
	if registry.updatedWeights[1] != 1.0 {
		t.Fatalf("expected marker weight 1.0, got %v", registry.updatedWeights[1])
	}
	if len(registry.replaced[1]) != 3 {
		t.Fatalf("expected 3 options, got %d", len(registry.replaced[1]))
	}
	if cache.invalidated != 1 {
		t.Fatalf("expected filter cache invalidated once, got %d", cache.invalidated)
	}
}

func TestRebuildVectorsQueuesUniverseJob(t *testing.T) {
	m, _, queue, _ := maintenanceFixture()

	if err := m.RebuildVectors(context.Background(), nil); err != nil {
		t.Fatalf("RebuildVectors() error = %v", err)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].Kind != domain.EmbedJobAll {
		t.Fatalf("expected one universe job, got %+v", queue.jobs)
	}
}

func TestRebuildVectorsQueuesPerSchemeJobs(t *testing.T) {
	m, _, queue, _ := maintenanceFixture()

	if err := m.RebuildVectors(context.Background(), []string{"AXIS1", "HDFC2"}); err != nil {
		t.Fatalf("RebuildVectors() error = %v", err)
	}
	if len(queue.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(queue.jobs))
	}
	if queue.jobs[0].SchemeCode != "AXIS1" || queue.jobs[1].SchemeCode != "HDFC2" {
		t.Fatalf("unexpected jobs %+v", queue.jobs)
	}
}

func TestRebuildVectorsRejectsEmptyCode(t *testing.T) {
	m, _, _, _ := maintenanceFixture()

	err := m.RebuildVectors(context.Background(), []string{"AXIS1", ""})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
