package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

func TestSubmitResponsesStagesValidAnswers(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	queue := &queueFake{}
	intake := NewResponseIntake(questionnaire, responses, queue, testLogger())

	answers := []domain.Answer{{QuestionID: 101, ResponseID: 1002}}
	if err := intake.SubmitResponses(context.Background(), 7, 10, answers); err != nil {
		t.Fatalf("SubmitResponses() error = %v", err)
	}
	if len(responses.staged) != 1 {
		t.Fatalf("expected 1 staged batch, got %d", len(responses.staged))
	}
	if responses.staged[0].userID != 7 || responses.staged[0].sectionID != 10 {
		t.Fatalf("staged under wrong keys: %+v", responses.staged[0])
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("staging must not publish embed jobs, got %d", len(queue.jobs))
	}
}

func TestSubmitResponsesRejectsEmptyBatch(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	intake := NewResponseIntake(questionnaire, responses, &queueFake{}, testLogger())

	err := intake.SubmitResponses(context.Background(), 7, 10, nil)
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitResponsesRejectsForeignQuestion(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	intake := NewResponseIntake(questionnaire, responses, &queueFake{}, testLogger())

	err := intake.SubmitResponses(context.Background(), 7, 10, []domain.Answer{{QuestionID: 999, ResponseID: 1002}})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(responses.staged) != 0 {
		t.Fatalf("invalid batch must not be staged")
	}
}

func TestSubmitResponsesRejectsDisallowedResponse(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	intake := NewResponseIntake(questionnaire, responses, &queueFake{}, testLogger())

	err := intake.SubmitResponses(context.Background(), 7, 10, []domain.Answer{{QuestionID: 101, ResponseID: 4242}})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCommitSectionPublishesUserEmbedJob(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	responses.committed = 3
	queue := &queueFake{}
	intake := NewResponseIntake(questionnaire, responses, queue, testLogger())

	if err := intake.CommitSection(context.Background(), 7, 10); err != nil {
		t.Fatalf("CommitSection() error = %v", err)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 embed job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.Kind != domain.EmbedJobUser || job.UserID != 7 {
		t.Fatalf("unexpected embed job %+v", job)
	}
}

func TestCommitSectionNoopWithoutStagedRows(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	queue := &queueFake{}
	intake := NewResponseIntake(questionnaire, responses, queue, testLogger())

	if err := intake.CommitSection(context.Background(), 7, 10); err != nil {
		t.Fatalf("CommitSection() error = %v", err)
	}
	if len(queue.jobs) != 0 {
		t.Fatalf("expected no embed job for empty commit")
	}
}

func TestCommitSectionSurvivesQueueOutage(t *testing.T) {
	questionnaire, responses := conditionalFixture()
	responses.committed = 1
	queue := &queueFake{err: errors.New("nats down")}
	intake := NewResponseIntake(questionnaire, responses, queue, testLogger())

	// The commit already happened; a failed publish must not fail the
	// request.
	if err := intake.CommitSection(context.Background(), 7, 10); err != nil {
		t.Fatalf("CommitSection() error = %v", err)
	}
}
