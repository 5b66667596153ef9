package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// Positional weight schedule: the option at position p of N contributes
// p/N. The same linear schedule drives both sides of the embedding: a
// user's answer scores questionWeight*p/N and a scheme's matched option
// scores position*optionWeight*initialMarkerWeight with optionWeight=1/N.
func PositionalWeight(position, count int) float64 {
	if position <= 0 || count <= 0 {
		return 0
	}
	return float64(position) / float64(count)
}

// OptionWeight is the per-option weight stored on MarkerOption rows.
func OptionWeight(count int) float64 {
	if count <= 0 {
		return 0
	}
	return 1 / float64(count)
}

// SectionWeight distributes 1 across sections.
func SectionWeight(numSections int) float64 {
	if numSections <= 0 {
		return 0
	}
	return 1 / float64(numSections)
}

// QuestionWeight distributes a section's weight across its questions, so
// question weights of one section sum to 1/|sections|.
func QuestionWeight(numSections, questionsInSection int) float64 {
	if questionsInSection <= 0 {
		return 0
	}
	return SectionWeight(numSections) / float64(questionsInSection)
}

// WeightAssigner runs the fund-side weight pass: per section, distribute 1
// uniformly across the section's markers as each marker's initial weight.
// The user-side pass is purely positional and needs no persisted state.
type WeightAssigner struct {
	questionnaire ports.QuestionnaireRepository
	registry      ports.MarkerRegistry
}

func NewWeightAssigner(questionnaire ports.QuestionnaireRepository, registry ports.MarkerRegistry) *WeightAssigner {
	return &WeightAssigner{
		questionnaire: questionnaire,
		registry:      registry,
	}
}

func (a *WeightAssigner) AssignMarkerWeights(ctx context.Context) error {
	sections, err := a.questionnaire.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}
	if len(sections) == 0 {
		return domain.WrapError(domain.ErrConfiguration, "assign marker weights", errors.New("no sections defined"))
	}

	weights := make(map[int64]float64)
	for _, section := range sections {
		markers, err := a.registry.ListForSection(ctx, section.ID)
		if err != nil {
			return fmt.Errorf("list markers for section %d: %w", section.ID, err)
		}
		for _, m := range markers {
			weights[m.ID] = 1 / float64(len(markers))
		}
	}
	if len(weights) == 0 {
		return domain.WrapError(domain.ErrConfiguration, "assign marker weights", errors.New("no markers registered"))
	}

	if err := a.registry.UpdateInitialWeights(ctx, weights); err != nil {
		return fmt.Errorf("persist marker weights: %w", err)
	}
	return nil
}
