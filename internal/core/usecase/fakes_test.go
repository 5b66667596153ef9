package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type questionnaireFake struct {
	sections  []domain.Section
	questions map[int64][]domain.Question
	options   map[int64][]domain.AllowedResponse
	rules     []domain.ConditionalRule
	err       error
}

func (f *questionnaireFake) ListSections(context.Context) ([]domain.Section, error) {
	return f.sections, f.err
}

func (f *questionnaireFake) GetSection(_ context.Context, id int64) (*domain.Section, error) {
	for _, s := range f.sections {
		if s.ID == id {
			section := s
			return &section, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get section", errors.New("no such section"))
}

func (f *questionnaireFake) ListQuestions(_ context.Context, sectionID int64) ([]domain.Question, error) {
	return f.questions[sectionID], nil
}

func (f *questionnaireFake) CountQuestionsBySection(context.Context) (map[int64]int, error) {
	counts := make(map[int64]int)
	for sectionID, qs := range f.questions {
		counts[sectionID] = len(qs)
	}
	return counts, nil
}

func (f *questionnaireFake) OptionsByQuestion(_ context.Context, questionIDs []int64) (map[int64][]domain.AllowedResponse, error) {
	out := make(map[int64][]domain.AllowedResponse)
	for _, id := range questionIDs {
		if opts, ok := f.options[id]; ok {
			out[id] = opts
		}
	}
	return out, nil
}

func (f *questionnaireFake) RulesForDependents(_ context.Context, questionIDs []int64) ([]domain.ConditionalRule, error) {
	wanted := make(map[int64]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}
	var out []domain.ConditionalRule
	for _, r := range f.rules {
		if _, ok := wanted[r.DependentQuestionID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type stagedBatch struct {
	userID    int64
	sectionID int64
	answers   []domain.Answer
}

type responseFake struct {
	responses []domain.UserResponse
	staged    []stagedBatch
	committed int
	commitErr error
}

func (f *responseFake) Stage(_ context.Context, userID, sectionID int64, answers []domain.Answer) error {
	f.staged = append(f.staged, stagedBatch{userID: userID, sectionID: sectionID, answers: answers})
	return nil
}

func (f *responseFake) CommitSection(context.Context, int64, int64) (int, error) {
	return f.committed, f.commitErr
}

func (f *responseFake) ListByUser(_ context.Context, userID int64) ([]domain.UserResponse, error) {
	var out []domain.UserResponse
	for _, r := range f.responses {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *responseFake) ResponsesForQuestions(_ context.Context, userID int64, questionIDs []int64) (map[int64]int64, error) {
	wanted := make(map[int64]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[int64]int64)
	for _, r := range f.responses {
		if r.UserID != userID {
			continue
		}
		if _, ok := wanted[r.QuestionID]; ok {
			out[r.QuestionID] = r.ResponseID
		}
	}
	return out, nil
}

type registryFake struct {
	markers         []domain.Marker
	optionsByMarker map[int64][]domain.MarkerOption

	updatedWeights map[int64]float64
	replaced       map[int64][]domain.MarkerOption
}

func (f *registryFake) Lookup(_ context.Context, name string) (*domain.Marker, error) {
	var found *domain.Marker
	for i := range f.markers {
		if f.markers[i].Name == name {
			if found != nil {
				return nil, domain.WrapError(domain.ErrConfiguration, "lookup marker", errors.New("duplicate marker"))
			}
			found = &f.markers[i]
		}
	}
	if found == nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "lookup marker", errors.New("no such marker"))
	}
	marker := *found
	return &marker, nil
}

func (f *registryFake) ListForSection(_ context.Context, sectionID int64) ([]domain.Marker, error) {
	var out []domain.Marker
	for _, m := range f.markers {
		if m.SectionID == sectionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *registryFake) ListAll(context.Context) ([]domain.Marker, error) {
	return f.markers, nil
}

func (f *registryFake) UpdateInitialWeights(_ context.Context, weights map[int64]float64) error {
	f.updatedWeights = weights
	return nil
}

func (f *registryFake) ReplaceOptions(_ context.Context, markerID int64, options []domain.MarkerOption) error {
	if f.replaced == nil {
		f.replaced = make(map[int64][]domain.MarkerOption)
	}
	f.replaced[markerID] = options
	return nil
}

func (f *registryFake) OptionsByMarker(context.Context) (map[int64][]domain.MarkerOption, error) {
	return f.optionsByMarker, nil
}

type schemeRepoFake struct {
	schemes     map[string]domain.Scheme
	candidates  []domain.Scheme
	rawByScheme map[string]map[int64]domain.RawValue
	rawByMarker map[int64][]domain.RawValue
	filters     *domain.FilterOptions
}

func (f *schemeRepoFake) Get(_ context.Context, code string) (*domain.Scheme, error) {
	s, ok := f.schemes[code]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get scheme", errors.New("no such scheme"))
	}
	return &s, nil
}

func (f *schemeRepoFake) ListActiveCodes(context.Context) ([]string, error) {
	var out []string
	for code, s := range f.schemes {
		if s.Active() {
			out = append(out, code)
		}
	}
	return out, nil
}

func (f *schemeRepoFake) ListCandidates(context.Context, domain.RecommendFilter) ([]domain.Scheme, error) {
	return f.candidates, nil
}

func (f *schemeRepoFake) RawValue(_ context.Context, code string, marker domain.Marker) (domain.RawValue, error) {
	if byMarker, ok := f.rawByScheme[code]; ok {
		if v, ok := byMarker[marker.ID]; ok {
			return v, nil
		}
	}
	return domain.RawValue{}, nil
}

func (f *schemeRepoFake) RawValues(_ context.Context, marker domain.Marker) ([]domain.RawValue, error) {
	return f.rawByMarker[marker.ID], nil
}

func (f *schemeRepoFake) DistinctFilterValues(context.Context) (*domain.FilterOptions, error) {
	return f.filters, nil
}

type vectorRepoFake struct {
	mu         sync.Mutex
	userVecs   map[int64]domain.SectionVector
	userInit   map[int64]bool
	schemeVecs map[string]domain.SectionVector

	savedResponses map[string][]domain.SchemeResponse
	savedWeights   map[string][]domain.MarkerWeight
	lookupDelay    time.Duration
}

func (f *vectorRepoFake) UpsertUserVector(_ context.Context, userID int64, vec domain.SectionVector, initialized bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userVecs == nil {
		f.userVecs = make(map[int64]domain.SectionVector)
		f.userInit = make(map[int64]bool)
	}
	f.userVecs[userID] = vec
	f.userInit[userID] = initialized
	return nil
}

func (f *vectorRepoFake) GetUserVector(_ context.Context, userID int64) (domain.SectionVector, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userVecs[userID], f.userInit[userID], nil
}

func (f *vectorRepoFake) SaveSchemeEmbedding(_ context.Context, code string, responses []domain.SchemeResponse, weights []domain.MarkerWeight, vec domain.SectionVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.schemeVecs == nil {
		f.schemeVecs = make(map[string]domain.SectionVector)
		f.savedResponses = make(map[string][]domain.SchemeResponse)
		f.savedWeights = make(map[string][]domain.MarkerWeight)
	}
	f.schemeVecs[code] = vec
	f.savedResponses[code] = responses
	f.savedWeights[code] = weights
	return nil
}

func (f *vectorRepoFake) SchemeVectors(_ context.Context, codes []string) (map[string]domain.SectionVector, error) {
	if f.lookupDelay > 0 {
		time.Sleep(f.lookupDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.SectionVector)
	for _, code := range codes {
		if vec, ok := f.schemeVecs[code]; ok {
			out[code] = vec
		}
	}
	return out, nil
}

func (f *vectorRepoFake) AllSchemeVectors(context.Context) (map[string]domain.SectionVector, error) {
	return f.schemeVecs, nil
}

type queueFake struct {
	jobs []domain.EmbedJob
	err  error
}

func (f *queueFake) PublishEmbedJob(_ context.Context, job domain.EmbedJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *queueFake) SubscribeEmbedJobs(context.Context, func(context.Context, domain.EmbedJob) error) error {
	return errors.New("not implemented")
}

type cacheFake struct {
	filters     *domain.FilterOptions
	invalidated int
}

func (f *cacheFake) Get(context.Context) (*domain.FilterOptions, error) {
	return f.filters, nil
}

func (f *cacheFake) Invalidate() {
	f.invalidated++
}
