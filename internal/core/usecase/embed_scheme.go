package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// FundEmbedder projects scheme attributes through the marker registry
// into the section coordinate system. The per-scheme pipeline (response
// projection, weight aggregation, vector reduction) persists atomically;
// a failed embed leaves the scheme's prior vector intact.
type FundEmbedder struct {
	questionnaire ports.QuestionnaireRepository
	registry      ports.MarkerRegistry
	schemes       ports.SchemeRepository
	vectors       ports.VectorRepository
	logger        *slog.Logger
	workers       int
	now           func() time.Time
}

func NewFundEmbedder(
	questionnaire ports.QuestionnaireRepository,
	registry ports.MarkerRegistry,
	schemes ports.SchemeRepository,
	vectors ports.VectorRepository,
	logger *slog.Logger,
	workers int,
) *FundEmbedder {
	if workers <= 0 {
		workers = 4
	}
	return &FundEmbedder{
		questionnaire: questionnaire,
		registry:      registry,
		schemes:       schemes,
		vectors:       vectors,
		logger:        logger,
		workers:       workers,
		now:           time.Now,
	}
}

// EmbedScheme recomputes one scheme's responses, marker weights and
// section vector. Schemes that are not Active are left untouched; their
// last vector survives but is filtered out at query time.
func (e *FundEmbedder) EmbedScheme(ctx context.Context, code string) error {
	scheme, err := e.schemes.Get(ctx, code)
	if err != nil {
		return err
	}
	if !scheme.Active() {
		e.logger.Info("scheme not active, skipping embed", "scheme_code", code, "status", scheme.Status)
		return nil
	}

	sections, err := e.questionnaire.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}
	sectionIndex := make(map[int64]int, len(sections))
	for i, s := range sections {
		sectionIndex[s.ID] = i
	}

	markers, err := e.registry.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list markers: %w", err)
	}
	if len(markers) == 0 {
		return domain.WrapError(domain.ErrConfiguration, "embed scheme", errors.New("no markers registered"))
	}
	optionsByMarker, err := e.registry.OptionsByMarker(ctx)
	if err != nil {
		return fmt.Errorf("load marker options: %w", err)
	}

	responses := make([]domain.SchemeResponse, 0, len(markers))
	weights := make([]domain.MarkerWeight, 0, len(markers))
	raw := make(domain.SectionVector, len(sections))

	for _, marker := range markers {
		if !marker.Bound() {
			return domain.WrapError(domain.ErrConfiguration, "embed scheme",
				fmt.Errorf("marker %q has no source binding", marker.Name))
		}

		option, ok, err := e.matchOption(ctx, code, marker, optionsByMarker[marker.ID])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		responses = append(responses, domain.SchemeResponse{
			SchemeCode: code,
			MarkerID:   marker.ID,
			OptionID:   option.ID,
			SectionID:  marker.SectionID,
		})
		weight := float64(option.Position) * option.Weight * marker.InitialWeight
		weights = append(weights, domain.MarkerWeight{
			SchemeCode: code,
			MarkerID:   marker.ID,
			SectionID:  marker.SectionID,
			Weight:     weight,
		})
		if idx, ok := sectionIndex[marker.SectionID]; ok {
			raw[idx] += weight
		}
	}

	vec := raw.Normalized()
	if err := e.vectors.SaveSchemeEmbedding(ctx, code, responses, weights, vec); err != nil {
		return fmt.Errorf("persist scheme embedding: %w", err)
	}

	e.logger.Debug("scheme vector updated", "scheme_code", code, "matched_markers", len(responses))
	return nil
}

// matchOption reads the marker's raw value for the scheme and locates the
// covering option. An unmatched or missing value degrades gracefully: the
// (scheme, marker) pair is skipped with a warning, never fabricated.
func (e *FundEmbedder) matchOption(ctx context.Context, code string, marker domain.Marker, options []domain.MarkerOption) (domain.MarkerOption, bool, error) {
	if len(options) == 0 {
		e.logger.Warn("marker has no options, skipping",
			"scheme_code", code, "marker", marker.Name)
		return domain.MarkerOption{}, false, nil
	}

	raw, err := e.schemes.RawValue(ctx, code, marker)
	if err != nil {
		return domain.MarkerOption{}, false, fmt.Errorf("raw value for marker %q: %w", marker.Name, err)
	}
	if !raw.Valid {
		e.logger.Warn("scheme has no value for marker, skipping",
			"scheme_code", code, "marker", marker.Name)
		return domain.MarkerOption{}, false, nil
	}

	switch marker.Kind {
	case domain.KindText:
		for _, o := range options {
			if o.Label == raw.Text {
				return o, true, nil
			}
		}
	default:
		v := raw.Number
		if marker.Kind == domain.KindTemporal {
			if raw.Time.IsZero() {
				e.logger.Warn("scheme has no date for marker, skipping",
					"scheme_code", code, "marker", marker.Name)
				return domain.MarkerOption{}, false, nil
			}
			v = float64(e.now().Year() - raw.Time.Year())
		}
		// Ascending position order resolves shared bin edges to the
		// lower bin.
		for _, o := range options {
			if o.Covers(v) {
				return o, true, nil
			}
		}
	}

	e.logger.Warn("no option covers marker value, skipping",
		"scheme_code", code, "marker", marker.Name)
	return domain.MarkerOption{}, false, nil
}

// EmbedAll re-embeds the active universe with a bounded worker pool.
// Individual scheme failures are logged and counted; the rebuild keeps
// going.
func (e *FundEmbedder) EmbedAll(ctx context.Context) error {
	codes, err := e.schemes.ListActiveCodes(ctx)
	if err != nil {
		return fmt.Errorf("list active schemes: %w", err)
	}

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []string

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(code string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := e.EmbedScheme(ctx, code); err != nil {
				e.logger.Error("scheme embed failed", "scheme_code", code, "error", err)
				mu.Lock()
				failed = append(failed, code)
				mu.Unlock()
			}
		}(code)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("embed all: %d of %d schemes failed", len(failed), len(codes))
	}
	return nil
}
