package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

type SchemeRepository struct {
	db *sql.DB
}

func NewSchemeRepository(db *sql.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

const schemeColumns = `scheme_code, name, asset_type, sub_category, risk_colour, sip_enabled, return_1y, return_3y, launch_date, status`

func (r *SchemeRepository) Get(ctx context.Context, code string) (*domain.Scheme, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+schemeColumns+`
FROM scheme_master
WHERE scheme_code = $1 AND NOT deleted
`, code)

	s, err := scanScheme(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get scheme", fmt.Errorf("scheme %q", code))
		}
		return nil, fmt.Errorf("get scheme: %w", err)
	}
	return &s, nil
}

func (r *SchemeRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT scheme_code
FROM scheme_master
WHERE status = $1 AND NOT deleted
ORDER BY scheme_code
`, string(domain.SchemeActive))
	if err != nil {
		return nil, fmt.Errorf("list active schemes: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan scheme code: %w", err)
		}
		out = append(out, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheme codes: %w", err)
	}
	return out, nil
}

// ListCandidates returns the active, non-deleted schemes matching every
// filter predicate, in ascending scheme-code order.
func (r *SchemeRepository) ListCandidates(ctx context.Context, filter domain.RecommendFilter) ([]domain.Scheme, error) {
	query := `
SELECT ` + schemeColumns + `
FROM scheme_master
WHERE status = $1 AND NOT deleted
`
	args := []any{string(domain.SchemeActive)}
	if filter.AssetType != "" {
		args = append(args, filter.AssetType)
		query += fmt.Sprintf("AND asset_type = $%d\n", len(args))
	}
	if filter.SubCategory != "" {
		args = append(args, filter.SubCategory)
		query += fmt.Sprintf("AND sub_category = $%d\n", len(args))
	}
	if filter.RiskColour != "" {
		args = append(args, filter.RiskColour)
		query += fmt.Sprintf("AND risk_colour = $%d\n", len(args))
	}
	if filter.SIPEnabled != nil {
		args = append(args, *filter.SIPEnabled)
		query += fmt.Sprintf("AND sip_enabled = $%d\n", len(args))
	}
	query += "ORDER BY scheme_code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Scheme, 0)
	for rows.Next() {
		s, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// sourceIdentifier guards the registry-supplied table/column names that
// get interpolated into raw-value queries.
var sourceIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validateBinding(m domain.Marker) error {
	if !sourceIdentifier.MatchString(m.SourceTable) || !sourceIdentifier.MatchString(m.SourceColumn) {
		return domain.WrapError(domain.ErrConfiguration, "validate binding",
			fmt.Errorf("marker %q has invalid source binding %s.%s", m.Name, m.SourceTable, m.SourceColumn))
	}
	return nil
}

// RawValue reads one scheme's raw attribute through the marker's binding.
func (r *SchemeRepository) RawValue(ctx context.Context, code string, marker domain.Marker) (domain.RawValue, error) {
	if err := validateBinding(marker); err != nil {
		return domain.RawValue{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE scheme_code = $1`, marker.SourceColumn, marker.SourceTable)
	row := r.db.QueryRowContext(ctx, query, code)

	value, err := scanRawValue(row, marker.Kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RawValue{Kind: marker.Kind}, nil
		}
		return domain.RawValue{}, fmt.Errorf("raw value %s.%s: %w", marker.SourceTable, marker.SourceColumn, err)
	}
	return value, nil
}

// RawValues streams the marker's raw attribute across the active
// universe; the discretizer consumes the full distribution.
func (r *SchemeRepository) RawValues(ctx context.Context, marker domain.Marker) ([]domain.RawValue, error) {
	if err := validateBinding(marker); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT t.%s
FROM %s t
JOIN scheme_master sm ON sm.scheme_code = t.scheme_code
WHERE sm.status = $1 AND NOT sm.deleted
ORDER BY t.scheme_code`, marker.SourceColumn, marker.SourceTable)

	rows, err := r.db.QueryContext(ctx, query, string(domain.SchemeActive))
	if err != nil {
		return nil, fmt.Errorf("raw values %s.%s: %w", marker.SourceTable, marker.SourceColumn, err)
	}
	defer rows.Close()

	out := make([]domain.RawValue, 0)
	for rows.Next() {
		value, err := scanRawValue(rows, marker.Kind)
		if err != nil {
			return nil, fmt.Errorf("scan raw value: %w", err)
		}
		out = append(out, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw values: %w", err)
	}
	return out, nil
}

func (r *SchemeRepository) DistinctFilterValues(ctx context.Context) (*domain.FilterOptions, error) {
	out := &domain.FilterOptions{}
	queries := []struct {
		column string
		dest   *[]string
	}{
		{"asset_type", &out.AssetTypes},
		{"sub_category", &out.SubCategories},
		{"risk_colour", &out.RiskColours},
	}

	for _, q := range queries {
		values, err := r.distinctColumn(ctx, q.column)
		if err != nil {
			return nil, err
		}
		*q.dest = values
	}
	return out, nil
}

func (r *SchemeRepository) distinctColumn(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
SELECT DISTINCT %s
FROM scheme_master
WHERE status = $1 AND NOT deleted AND %s <> ''
ORDER BY %s`, column, column, column)

	rows, err := r.db.QueryContext(ctx, query, string(domain.SchemeActive))
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct %s: %w", column, err)
	}
	return out, nil
}

type schemeScanner interface {
	Scan(dest ...any) error
}

func scanScheme(row schemeScanner) (domain.Scheme, error) {
	var s domain.Scheme
	var status string
	var launch sql.NullTime
	err := row.Scan(&s.Code, &s.Name, &s.AssetType, &s.SubCategory, &s.RiskColour,
		&s.SIPEnabled, &s.Return1Y, &s.Return3Y, &launch, &status)
	if err != nil {
		return domain.Scheme{}, err
	}
	if launch.Valid {
		s.LaunchDate = launch.Time
	}
	s.Status = domain.SchemeStatus(strings.TrimSpace(status))
	return s, nil
}

func scanRawValue(row schemeScanner, kind domain.ValueKind) (domain.RawValue, error) {
	switch kind {
	case domain.KindText:
		var v sql.NullString
		if err := row.Scan(&v); err != nil {
			return domain.RawValue{}, err
		}
		return domain.RawValue{Kind: kind, Text: v.String, Valid: v.Valid}, nil
	case domain.KindTemporal:
		var v sql.NullTime
		if err := row.Scan(&v); err != nil {
			return domain.RawValue{}, err
		}
		return domain.RawValue{Kind: kind, Time: v.Time, Valid: v.Valid}, nil
	default:
		var v sql.NullFloat64
		if err := row.Scan(&v); err != nil {
			return domain.RawValue{}, err
		}
		return domain.RawValue{Kind: kind, Number: v.Float64, Valid: v.Valid}, nil
	}
}
