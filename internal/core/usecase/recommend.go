package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// candidateCap bounds the ranked window before pagination.
const candidateCap = 60

// Recommender ranks the filtered active universe against a user's
// section vector by L2 distance. Filtering happens first so a linear
// scan over the candidate set stays cheap at the current universe size;
// the port shape permits swapping in an ANN index without touching
// callers.
type Recommender struct {
	schemes  ports.SchemeRepository
	vectors  ports.VectorRepository
	logger   *slog.Logger
	deadline time.Duration
}

func NewRecommender(
	schemes ports.SchemeRepository,
	vectors ports.VectorRepository,
	logger *slog.Logger,
	deadline time.Duration,
) *Recommender {
	if deadline <= 0 {
		deadline = 2 * time.Second
	}
	return &Recommender{
		schemes:  schemes,
		vectors:  vectors,
		logger:   logger,
		deadline: deadline,
	}
}

func (r *Recommender) Recommend(
	ctx context.Context,
	userID int64,
	filter domain.RecommendFilter,
	sortBy domain.SortBy,
	page, pageSize int,
) (*domain.RankedList, error) {
	if page <= 0 || pageSize <= 0 {
		return nil, domain.WrapError(domain.ErrValidation, "recommend",
			fmt.Errorf("page and page_size must be positive, got page=%d page_size=%d", page, pageSize))
	}
	if !sortBy.Valid() {
		return nil, domain.WrapError(domain.ErrValidation, "recommend",
			fmt.Errorf("unknown sort_by %q", sortBy))
	}

	userVec, initialized, err := r.vectors.GetUserVector(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user vector: %w", err)
	}
	if !initialized || userVec.IsZero() {
		return &domain.RankedList{
			Status:   domain.RecommendationColdStart,
			Items:    []domain.RankedScheme{},
			Page:     page,
			PageSize: pageSize,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	// Candidates come back in ascending scheme-code order, which fixes
	// the floating-point evaluation order and keeps runs deterministic.
	candidates, err := r.schemes.ListCandidates(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	codes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		codes = append(codes, c.Code)
	}
	schemeVecs, err := r.vectors.SchemeVectors(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("load scheme vectors: %w", err)
	}

	status := domain.RecommendationOK
	ranked := make([]domain.RankedScheme, 0, len(candidates))
	for _, c := range candidates {
		if ctx.Err() != nil {
			// Deadline breached: return the best-effort partial set
			// with the timeout flag instead of failing the request.
			status = domain.RecommendationTimeout
			break
		}
		vec, ok := schemeVecs[c.Code]
		if !ok {
			continue
		}
		ranked = append(ranked, domain.RankedScheme{
			Scheme:   c,
			Distance: domain.L2Distance(userVec, vec),
		})
	}

	sortRanked(ranked, sortBy)
	if len(ranked) > candidateCap {
		ranked = ranked[:candidateCap]
	}

	return paginate(ranked, status, page, pageSize), nil
}

// sortRanked orders by ascending distance, then by the secondary return
// metric descending, then by scheme code ascending for determinism.
func sortRanked(ranked []domain.RankedScheme, sortBy domain.SortBy) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Distance != ranked[j].Distance {
			return ranked[i].Distance < ranked[j].Distance
		}
		si, sj := secondaryKey(ranked[i], sortBy), secondaryKey(ranked[j], sortBy)
		if si != sj {
			return si > sj
		}
		return ranked[i].Code < ranked[j].Code
	})
}

func secondaryKey(s domain.RankedScheme, sortBy domain.SortBy) float64 {
	switch sortBy {
	case domain.SortReturn1Y:
		return s.Return1Y
	case domain.SortReturn3Y:
		return s.Return3Y
	}
	return 0
}

func paginate(ranked []domain.RankedScheme, status domain.RecommendationStatus, page, pageSize int) *domain.RankedList {
	total := len(ranked)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &domain.RankedList{
		Status:       status,
		Items:        ranked[start:end],
		Page:         page,
		PageSize:     pageSize,
		TotalMatched: total,
		TotalPages:   totalPages,
	}
}
