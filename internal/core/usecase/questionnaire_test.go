package usecase

import (
	"context"
	"testing"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

func conditionalFixture() (*questionnaireFake, *responseFake) {
	questionnaire := &questionnaireFake{
		sections: []domain.Section{{ID: 10, Name: "risk"}},
		questions: map[int64][]domain.Question{
			10: {
				{ID: 101, SectionID: 10, Prompt: "Do you invest in equity?", Visible: true},
				{ID: 102, SectionID: 10, Prompt: "Which equity style?", Visible: false},
				{ID: 103, SectionID: 10, Prompt: "Preferred debt duration?", Visible: true},
			},
		},
		options: map[int64][]domain.AllowedResponse{
			101: {
				{ID: 1001, QuestionID: 101, Text: "Yes", Position: 2},
				{ID: 1002, QuestionID: 101, Text: "No", Position: 1},
			},
			102: {{ID: 1003, QuestionID: 102, Text: "Growth", Position: 1}},
			103: {{ID: 1004, QuestionID: 103, Text: "Short", Position: 1}},
		},
		rules: []domain.ConditionalRule{
			{DependentQuestionID: 102, BaseQuestionID: 101, BaseResponseID: 1001, Verdict: domain.VerdictShow},
			{DependentQuestionID: 103, BaseQuestionID: 101, BaseResponseID: 1001, Verdict: domain.VerdictHide},
		},
	}
	responses := &responseFake{}
	return questionnaire, responses
}

func questionIDs(questions []domain.VisibleQuestion) []int64 {
	out := make([]int64, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestSectionQuestionsDefaultVisibility(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	svc := NewQuestionnaireService(questionnaire, responses)

	// No base answer yet: neither rule fires.
	visible, err := svc.SectionQuestions(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("SectionQuestions() error = %v", err)
	}
	ids := questionIDs(visible)
	if len(ids) != 2 || ids[0] != 101 || ids[1] != 103 {
		t.Fatalf("expected questions [101 103], got %v", ids)
	}
}

func TestSectionQuestionsConditionalShowAndHide(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	responses.responses = []domain.UserResponse{
		{UserID: 7, QuestionID: 101, ResponseID: 1001, SectionID: 10},
	}
	svc := NewQuestionnaireService(questionnaire, responses)

	visible, err := svc.SectionQuestions(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("SectionQuestions() error = %v", err)
	}
	ids := questionIDs(visible)
	if len(ids) != 2 || ids[0] != 101 || ids[1] != 102 {
		t.Fatalf("expected show rule to reveal 102 and hide rule to suppress 103, got %v", ids)
	}
	if len(visible[1].Options) != 1 || visible[1].Options[0].ID != 1003 {
		t.Fatalf("expected options attached to revealed question, got %+v", visible[1].Options)
	}
}

func TestSectionQuestionsHideWinsOverShow(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	questionnaire.rules = append(questionnaire.rules, domain.ConditionalRule{
		DependentQuestionID: 102, BaseQuestionID: 101, BaseResponseID: 1001, Verdict: domain.VerdictHide,
	})
	responses.responses = []domain.UserResponse{
		{UserID: 7, QuestionID: 101, ResponseID: 1001, SectionID: 10},
	}
	svc := NewQuestionnaireService(questionnaire, responses)

	visible, err := svc.SectionQuestions(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("SectionQuestions() error = %v", err)
	}
	for _, q := range visible {
		if q.ID == 102 {
			t.Fatalf("expected hide verdict to override show for question 102")
		}
	}
}

func TestSectionQuestionsUnknownSection(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	svc := NewQuestionnaireService(questionnaire, responses)

	_, err := svc.SectionQuestions(context.Background(), 7, 999)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
