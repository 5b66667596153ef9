package usecase

import (
	"context"
	"fmt"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// CompletionTracker computes per-section and overall questionnaire
// completion, honouring the same conditional visibility as the
// questionnaire service.
type CompletionTracker struct {
	questionnaire ports.QuestionnaireRepository
	responses     ports.ResponseRepository
	visibility    *QuestionnaireService
}

func NewCompletionTracker(
	questionnaire ports.QuestionnaireRepository,
	responses ports.ResponseRepository,
	visibility *QuestionnaireService,
) *CompletionTracker {
	return &CompletionTracker{
		questionnaire: questionnaire,
		responses:     responses,
		visibility:    visibility,
	}
}

func (t *CompletionTracker) TotalCompletion(ctx context.Context, userID int64) (*domain.CompletionReport, error) {
	sections, err := t.questionnaire.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	userResponses, err := t.responses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user responses: %w", err)
	}
	answeredQuestions := make(map[int64]struct{}, len(userResponses))
	for _, r := range userResponses {
		answeredQuestions[r.QuestionID] = struct{}{}
	}

	report := &domain.CompletionReport{
		Sections: make([]domain.SectionCompletion, 0, len(sections)),
	}
	totalVisible, totalAnswered := 0, 0
	for _, section := range sections {
		visible, err := t.visibility.visibleQuestions(ctx, userID, section.ID)
		if err != nil {
			return nil, err
		}
		answered := 0
		for _, q := range visible {
			if _, ok := answeredQuestions[q.ID]; ok {
				answered++
			}
		}
		report.Sections = append(report.Sections, domain.SectionCompletion{
			SectionID: section.ID,
			Name:      section.Name,
			Visible:   len(visible),
			Answered:  answered,
			Rate:      completionRate(answered, len(visible)),
		})
		totalVisible += len(visible)
		totalAnswered += answered
	}

	report.TotalRate = completionRate(totalAnswered, totalVisible)
	report.ShowBanner = report.TotalRate < 100
	return report, nil
}

func completionRate(answered, visible int) float64 {
	if visible == 0 {
		return 0
	}
	return float64(answered) / float64(visible) * 100
}
