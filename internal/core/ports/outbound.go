package ports

import (
	"context"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

// QuestionnaireRepository reads the curated questionnaire schema.
type QuestionnaireRepository interface {
	ListSections(ctx context.Context) ([]domain.Section, error)
	GetSection(ctx context.Context, id int64) (*domain.Section, error)
	ListQuestions(ctx context.Context, sectionID int64) ([]domain.Question, error)
	CountQuestionsBySection(ctx context.Context) (map[int64]int, error)
	OptionsByQuestion(ctx context.Context, questionIDs []int64) (map[int64][]domain.AllowedResponse, error)
	RulesForDependents(ctx context.Context, questionIDs []int64) ([]domain.ConditionalRule, error)
}

// ResponseRepository persists user responses and the per-(user,section)
// staging buffer that backs deferred-save semantics.
type ResponseRepository interface {
	Stage(ctx context.Context, userID, sectionID int64, answers []domain.Answer) error
	CommitSection(ctx context.Context, userID, sectionID int64) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.UserResponse, error)
	ResponsesForQuestions(ctx context.Context, userID int64, questionIDs []int64) (map[int64]int64, error)
}

// MarkerRegistry owns markers, their source bindings and their options.
type MarkerRegistry interface {
	Lookup(ctx context.Context, name string) (*domain.Marker, error)
	ListForSection(ctx context.Context, sectionID int64) ([]domain.Marker, error)
	ListAll(ctx context.Context) ([]domain.Marker, error)
	UpdateInitialWeights(ctx context.Context, weights map[int64]float64) error
	ReplaceOptions(ctx context.Context, markerID int64, options []domain.MarkerOption) error
	OptionsByMarker(ctx context.Context) (map[int64][]domain.MarkerOption, error)
}

// SchemeRepository reads the scheme master and raw marker attributes.
type SchemeRepository interface {
	Get(ctx context.Context, code string) (*domain.Scheme, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	ListCandidates(ctx context.Context, filter domain.RecommendFilter) ([]domain.Scheme, error)
	RawValue(ctx context.Context, code string, marker domain.Marker) (domain.RawValue, error)
	RawValues(ctx context.Context, marker domain.Marker) ([]domain.RawValue, error)
	DistinctFilterValues(ctx context.Context) (*domain.FilterOptions, error)
}

// VectorRepository persists subject vectors. SaveSchemeEmbedding replaces
// a scheme's responses, marker weights and vector in one transaction so
// the ranker never observes a partially written embed.
type VectorRepository interface {
	UpsertUserVector(ctx context.Context, userID int64, vec domain.SectionVector, initialized bool) error
	GetUserVector(ctx context.Context, userID int64) (domain.SectionVector, bool, error)
	SaveSchemeEmbedding(ctx context.Context, code string, responses []domain.SchemeResponse, weights []domain.MarkerWeight, vec domain.SectionVector) error
	SchemeVectors(ctx context.Context, codes []string) (map[string]domain.SectionVector, error)
	AllSchemeVectors(ctx context.Context) (map[string]domain.SectionVector, error)
}

// EmbedQueue carries embedding jobs between the api and the worker.
type EmbedQueue interface {
	PublishEmbedJob(ctx context.Context, job domain.EmbedJob) error
	SubscribeEmbedJobs(ctx context.Context, handler func(context.Context, domain.EmbedJob) error) error
}

// FilterOptionCache serves the distinct categorical filter values and is
// invalidated after the option discretizer runs.
type FilterOptionCache interface {
	Get(ctx context.Context) (*domain.FilterOptions, error)
	Invalidate()
}
