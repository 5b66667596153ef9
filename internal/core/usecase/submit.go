package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// ResponseIntake validates and stages questionnaire answers. Answers are
// buffered per (user, section) in the store until the section is
// committed, at which point they replace the user's prior responses in
// bulk and a user embed job is published.
type ResponseIntake struct {
	questionnaire ports.QuestionnaireRepository
	responses     ports.ResponseRepository
	queue         ports.EmbedQueue
	logger        *slog.Logger
}

func NewResponseIntake(
	questionnaire ports.QuestionnaireRepository,
	responses ports.ResponseRepository,
	queue ports.EmbedQueue,
	logger *slog.Logger,
) *ResponseIntake {
	return &ResponseIntake{
		questionnaire: questionnaire,
		responses:     responses,
		queue:         queue,
		logger:        logger,
	}
}

func (in *ResponseIntake) SubmitResponses(ctx context.Context, userID, sectionID int64, answers []domain.Answer) error {
	if len(answers) == 0 {
		return domain.WrapError(domain.ErrValidation, "submit responses", fmt.Errorf("no answers provided"))
	}
	if _, err := in.questionnaire.GetSection(ctx, sectionID); err != nil {
		return err
	}

	questions, err := in.questionnaire.ListQuestions(ctx, sectionID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	inSection := make(map[int64]struct{}, len(questions))
	questionIDs := make([]int64, 0, len(answers))
	for _, q := range questions {
		inSection[q.ID] = struct{}{}
	}
	for _, a := range answers {
		if _, ok := inSection[a.QuestionID]; !ok {
			return domain.WrapError(domain.ErrValidation, "submit responses",
				fmt.Errorf("question %d is not in section %d", a.QuestionID, sectionID))
		}
		questionIDs = append(questionIDs, a.QuestionID)
	}

	optionsByQuestion, err := in.questionnaire.OptionsByQuestion(ctx, questionIDs)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	for _, a := range answers {
		if !responseAllowed(optionsByQuestion[a.QuestionID], a.ResponseID) {
			return domain.WrapError(domain.ErrValidation, "submit responses",
				fmt.Errorf("response %d is not allowed for question %d", a.ResponseID, a.QuestionID))
		}
	}

	if err := in.responses.Stage(ctx, userID, sectionID, answers); err != nil {
		return fmt.Errorf("stage responses: %w", err)
	}
	return nil
}

// CommitSection flushes the staged answers of one section and triggers a
// user re-embed when anything changed.
func (in *ResponseIntake) CommitSection(ctx context.Context, userID, sectionID int64) error {
	if _, err := in.questionnaire.GetSection(ctx, sectionID); err != nil {
		return err
	}

	committed, err := in.responses.CommitSection(ctx, userID, sectionID)
	if err != nil {
		return fmt.Errorf("commit section: %w", err)
	}
	if committed == 0 {
		return nil
	}

	job := domain.EmbedJob{Kind: domain.EmbedJobUser, UserID: userID}
	if err := in.queue.PublishEmbedJob(ctx, job); err != nil {
		// Responses are committed; the vector catches up on the next
		// embed. Surface the degradation in the log only.
		in.logger.Warn("publish user embed job failed",
			"user_id", userID, "section_id", sectionID, "error", err)
	}
	return nil
}

func responseAllowed(options []domain.AllowedResponse, responseID int64) bool {
	for _, o := range options {
		if o.ID == responseID {
			return true
		}
	}
	return false
}
