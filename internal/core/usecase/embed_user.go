package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// UserEmbedder maps a user's questionnaire responses into the section
// coordinate system. The resulting vector is L2-normalized; a user with
// no responses persists a zero vector marked uninitialized (cold start).
type UserEmbedder struct {
	questionnaire ports.QuestionnaireRepository
	responses     ports.ResponseRepository
	vectors       ports.VectorRepository
	logger        *slog.Logger
}

func NewUserEmbedder(
	questionnaire ports.QuestionnaireRepository,
	responses ports.ResponseRepository,
	vectors ports.VectorRepository,
	logger *slog.Logger,
) *UserEmbedder {
	return &UserEmbedder{
		questionnaire: questionnaire,
		responses:     responses,
		vectors:       vectors,
		logger:        logger,
	}
}

// EmbedUser recomputes the user's section vector from the current
// responses. Idempotent for a fixed response set; writes are serialized
// per user by the vector repository.
func (e *UserEmbedder) EmbedUser(ctx context.Context, userID int64) error {
	sections, err := e.questionnaire.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}
	if len(sections) == 0 {
		return domain.WrapError(domain.ErrNotApplicable, "embed user", errors.New("no sections defined"))
	}
	sectionIndex := make(map[int64]int, len(sections))
	for i, s := range sections {
		sectionIndex[s.ID] = i
	}

	userResponses, err := e.responses.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list responses: %w", err)
	}
	if len(userResponses) == 0 {
		zero := make(domain.SectionVector, len(sections))
		if err := e.vectors.UpsertUserVector(ctx, userID, zero, false); err != nil {
			return fmt.Errorf("persist zero vector: %w", err)
		}
		return nil
	}

	questionCounts, err := e.questionnaire.CountQuestionsBySection(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}

	questionIDs := make([]int64, 0, len(userResponses))
	for _, r := range userResponses {
		questionIDs = append(questionIDs, r.QuestionID)
	}
	optionsByQuestion, err := e.questionnaire.OptionsByQuestion(ctx, questionIDs)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}

	raw := make(domain.SectionVector, len(sections))
	for _, r := range userResponses {
		idx, ok := sectionIndex[r.SectionID]
		if !ok {
			return domain.WrapError(domain.ErrDataIntegrity, "embed user",
				fmt.Errorf("response to question %d references unknown section %d", r.QuestionID, r.SectionID))
		}

		options := optionsByQuestion[r.QuestionID]
		position := responsePosition(options, r.ResponseID)
		if position == 0 {
			return domain.WrapError(domain.ErrDataIntegrity, "embed user",
				fmt.Errorf("response %d not among options of question %d", r.ResponseID, r.QuestionID))
		}

		questionWeight := QuestionWeight(len(sections), questionCounts[r.SectionID])
		raw[idx] += questionWeight * PositionalWeight(position, len(options))
	}

	vec := raw.Normalized()
	initialized := !vec.IsZero()
	if err := e.vectors.UpsertUserVector(ctx, userID, vec, initialized); err != nil {
		return fmt.Errorf("persist user vector: %w", err)
	}

	e.logger.Debug("user vector updated", "user_id", userID, "responses", len(userResponses))
	return nil
}

func responsePosition(options []domain.AllowedResponse, responseID int64) int {
	for _, o := range options {
		if o.ID == responseID {
			return o.Position
		}
	}
	return 0
}
