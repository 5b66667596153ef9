package usecase

import (
	"context"
	"fmt"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// QuestionnaireService resolves the visible questions of a section for a
// user by evaluating conditional rules against the user's prior answers.
type QuestionnaireService struct {
	questionnaire ports.QuestionnaireRepository
	responses     ports.ResponseRepository
}

func NewQuestionnaireService(
	questionnaire ports.QuestionnaireRepository,
	responses ports.ResponseRepository,
) *QuestionnaireService {
	return &QuestionnaireService{
		questionnaire: questionnaire,
		responses:     responses,
	}
}

// SectionQuestions returns the ordered visible questions of the section
// with their position-ordered options. It never returns a question from
// another section.
func (s *QuestionnaireService) SectionQuestions(ctx context.Context, userID, sectionID int64) ([]domain.VisibleQuestion, error) {
	section, err := s.questionnaire.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	visible, err := s.visibleQuestions(ctx, userID, section.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(visible))
	for _, q := range visible {
		ids = append(ids, q.ID)
	}
	optionsByQuestion, err := s.questionnaire.OptionsByQuestion(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	out := make([]domain.VisibleQuestion, 0, len(visible))
	for _, q := range visible {
		out = append(out, domain.VisibleQuestion{
			Question: q,
			Options:  optionsByQuestion[q.ID],
		})
	}
	return out, nil
}

// visibleQuestions applies conditional rules to the section's questions.
// A hide rule matching the user's base answer suppresses the question; a
// show rule reveals one whose default visibility is off. Hide wins.
func (s *QuestionnaireService) visibleQuestions(ctx context.Context, userID, sectionID int64) ([]domain.Question, error) {
	questions, err := s.questionnaire.ListQuestions(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	ids := make([]int64, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	rules, err := s.questionnaire.RulesForDependents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	baseIDs := make([]int64, 0, len(rules))
	for _, r := range rules {
		baseIDs = append(baseIDs, r.BaseQuestionID)
	}
	answered := map[int64]int64{}
	if len(baseIDs) > 0 {
		answered, err = s.responses.ResponsesForQuestions(ctx, userID, baseIDs)
		if err != nil {
			return nil, fmt.Errorf("load base responses: %w", err)
		}
	}

	rulesByDependent := make(map[int64][]domain.ConditionalRule)
	for _, r := range rules {
		rulesByDependent[r.DependentQuestionID] = append(rulesByDependent[r.DependentQuestionID], r)
	}

	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if questionVisible(q, rulesByDependent[q.ID], answered) {
			out = append(out, q)
		}
	}
	return out, nil
}

func questionVisible(q domain.Question, rules []domain.ConditionalRule, answered map[int64]int64) bool {
	shown := q.Visible
	for _, rule := range rules {
		responseID, ok := answered[rule.BaseQuestionID]
		if !ok || responseID != rule.BaseResponseID {
			continue
		}
		if rule.Verdict == domain.VerdictHide {
			return false
		}
		shown = true
	}
	return shown
}
