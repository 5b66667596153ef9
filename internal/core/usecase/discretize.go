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

// numericBins is the bin count for numeric markers with more than
// numericBins distinct values.
const numericBins = 5

// OptionDiscretizer rebuilds marker option sets from the raw value
// distribution across the active scheme universe. Rebuilds are manual,
// idempotent, and followed by a filter-cache invalidation.
type OptionDiscretizer struct {
	registry ports.MarkerRegistry
	schemes  ports.SchemeRepository
	cache    ports.FilterOptionCache
	logger   *slog.Logger
	now      func() time.Time
}

func NewOptionDiscretizer(
	registry ports.MarkerRegistry,
	schemes ports.SchemeRepository,
	cache ports.FilterOptionCache,
	logger *slog.Logger,
) *OptionDiscretizer {
	return &OptionDiscretizer{
		registry: registry,
		schemes:  schemes,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// RebuildAll regenerates the option rows of every registered marker.
// Markers with no raw values are skipped with a warning; downstream
// scoring treats them as absent for every scheme.
func (d *OptionDiscretizer) RebuildAll(ctx context.Context) error {
	markers, err := d.registry.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list markers: %w", err)
	}

	for _, marker := range markers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !marker.Bound() {
			return domain.WrapError(domain.ErrConfiguration, "rebuild options",
				fmt.Errorf("marker %q has no source binding", marker.Name))
		}

		values, err := d.schemes.RawValues(ctx, marker)
		if err != nil {
			return fmt.Errorf("raw values for marker %q: %w", marker.Name, err)
		}

		options := d.buildOptions(marker, values)
		if len(options) == 0 {
			d.logger.Warn("marker has no values, skipping",
				"marker", marker.Name, "marker_id", marker.ID)
			continue
		}

		if err := d.registry.ReplaceOptions(ctx, marker.ID, options); err != nil {
			return fmt.Errorf("replace options for marker %q: %w", marker.Name, err)
		}
	}

	if d.cache != nil {
		d.cache.Invalidate()
	}
	return nil
}

func (d *OptionDiscretizer) buildOptions(marker domain.Marker, values []domain.RawValue) []domain.MarkerOption {
	switch marker.Kind {
	case domain.KindText:
		return buildTextOptions(marker, values)
	case domain.KindTemporal:
		return buildNumericOptions(marker, temporalToAges(values, d.now().Year()))
	default:
		return buildNumericOptions(marker, numericValues(values))
	}
}

// temporalToAges reduces dates to integer age in years relative to the
// current year before binning.
func temporalToAges(values []domain.RawValue, currentYear int) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !v.Valid || v.Time.IsZero() {
			continue
		}
		out = append(out, float64(currentYear-v.Time.Year()))
	}
	return out
}

func numericValues(values []domain.RawValue) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !v.Valid {
			continue
		}
		out = append(out, v.Number)
	}
	return out
}

// buildNumericOptions produces five uniform-width bins over [min,max] when
// more than five distinct values exist, else one point option per sorted
// distinct value. Positions are dense from 1, ordered by lower bound.
func buildNumericOptions(marker domain.Marker, values []float64) []domain.MarkerOption {
	distinct := distinctSorted(values)
	if len(distinct) == 0 {
		return nil
	}

	if len(distinct) <= numericBins {
		options := make([]domain.MarkerOption, 0, len(distinct))
		weight := OptionWeight(len(distinct))
		for i, v := range distinct {
			options = append(options, domain.MarkerOption{
				MarkerID:  marker.ID,
				SectionID: marker.SectionID,
				Position:  i + 1,
				Label:     formatInterval(v, v),
				Lo:        v,
				Hi:        v,
				Weight:    weight,
			})
		}
		return options
	}

	lo, hi := distinct[0], distinct[len(distinct)-1]
	width := (hi - lo) / numericBins
	options := make([]domain.MarkerOption, 0, numericBins)
	weight := OptionWeight(numericBins)
	for i := 0; i < numericBins; i++ {
		binLo := lo + width*float64(i)
		binHi := lo + width*float64(i+1)
		if i == numericBins-1 {
			binHi = hi
		}
		options = append(options, domain.MarkerOption{
			MarkerID:  marker.ID,
			SectionID: marker.SectionID,
			Position:  i + 1,
			Label:     formatInterval(binLo, binHi),
			Lo:        binLo,
			Hi:        binHi,
			Weight:    weight,
		})
	}
	return options
}

// buildTextOptions emits one option per distinct literal in stable byte
// order, positions dense from 1.
func buildTextOptions(marker domain.Marker, values []domain.RawValue) []domain.MarkerOption {
	seen := make(map[string]struct{})
	literals := make([]string, 0, len(values))
	for _, v := range values {
		if !v.Valid || v.Text == "" {
			continue
		}
		if _, ok := seen[v.Text]; ok {
			continue
		}
		seen[v.Text] = struct{}{}
		literals = append(literals, v.Text)
	}
	if len(literals) == 0 {
		return nil
	}
	sort.Strings(literals)

	options := make([]domain.MarkerOption, 0, len(literals))
	weight := OptionWeight(len(literals))
	for i, literal := range literals {
		options = append(options, domain.MarkerOption{
			MarkerID:  marker.ID,
			SectionID: marker.SectionID,
			Position:  i + 1,
			Label:     literal,
			Weight:    weight,
		})
	}
	return options
}

func distinctSorted(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func formatInterval(lo, hi float64) string {
	return fmt.Sprintf("%.2f-%.2f", lo, hi)
}
