package ports

import (
	"context"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

// QuestionnaireService delivers visibility-filtered questions.
type QuestionnaireService interface {
	SectionQuestions(ctx context.Context, userID, sectionID int64) ([]domain.VisibleQuestion, error)
}

// ResponseIntake stages and commits user answers with deferred-save
// semantics: answers buffer per (user, section) until the section is
// committed.
type ResponseIntake interface {
	SubmitResponses(ctx context.Context, userID, sectionID int64, answers []domain.Answer) error
	CommitSection(ctx context.Context, userID, sectionID int64) error
}

// CompletionService computes per-section and overall completion.
type CompletionService interface {
	TotalCompletion(ctx context.Context, userID int64) (*domain.CompletionReport, error)
}

// Recommender ranks active schemes for a user.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, filter domain.RecommendFilter, sortBy domain.SortBy, page, pageSize int) (*domain.RankedList, error)
}

// UserEmbedService recomputes one user's section vector.
type UserEmbedService interface {
	EmbedUser(ctx context.Context, userID int64) error
}

// SchemeEmbedService recomputes scheme section vectors.
type SchemeEmbedService interface {
	EmbedScheme(ctx context.Context, code string) error
	EmbedAll(ctx context.Context) error
}

// MaintenanceService is the admin-invoked surface.
type MaintenanceService interface {
	RebuildOptions(ctx context.Context) error
	RebuildVectors(ctx context.Context, schemes []string) error
}
