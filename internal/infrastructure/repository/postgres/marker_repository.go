package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

// MarkerRepository is the reference registry: markers, their source
// bindings and their discretized options.
type MarkerRepository struct {
	db *sql.DB
}

func NewMarkerRepository(db *sql.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

const markerColumns = `id, section_id, name, source_table, source_column, kind, initial_weight`

func (r *MarkerRepository) Lookup(ctx context.Context, name string) (*domain.Marker, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+markerColumns+`
FROM markers
WHERE name = $1 AND NOT deleted
`, name)
	if err != nil {
		return nil, fmt.Errorf("lookup marker: %w", err)
	}
	defer rows.Close()

	var found []domain.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markers: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, domain.WrapError(domain.ErrConfiguration, "lookup marker",
			fmt.Errorf("marker %q is not bound", name))
	case 1:
		return &found[0], nil
	default:
		return nil, domain.WrapError(domain.ErrConfiguration, "lookup marker",
			fmt.Errorf("marker %q has %d bindings", name, len(found)))
	}
}

func (r *MarkerRepository) ListForSection(ctx context.Context, sectionID int64) ([]domain.Marker, error) {
	return r.list(ctx, `
SELECT `+markerColumns+`
FROM markers
WHERE section_id = $1 AND NOT deleted
ORDER BY id
`, sectionID)
}

func (r *MarkerRepository) ListAll(ctx context.Context) ([]domain.Marker, error) {
	return r.list(ctx, `
SELECT `+markerColumns+`
FROM markers
WHERE NOT deleted
ORDER BY id
`)
}

func (r *MarkerRepository) list(ctx context.Context, query string, args ...any) ([]domain.Marker, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Marker, 0)
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markers: %w", err)
	}
	return out, nil
}

func (r *MarkerRepository) UpdateInitialWeights(ctx context.Context, weights map[int64]float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin weights tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for markerID, weight := range weights {
		result, err := tx.ExecContext(ctx, `
UPDATE markers SET initial_weight = $2 WHERE id = $1 AND NOT deleted
`, markerID, weight)
		if err != nil {
			return fmt.Errorf("update marker %d weight: %w", markerID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("weight rows affected: %w", err)
		}
		if affected == 0 {
			return domain.WrapError(domain.ErrNotFound, "update marker weight",
				fmt.Errorf("marker %d", markerID))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weights tx: %w", err)
	}
	return nil
}

// ReplaceOptions rewrites the marker's option rows within one
// transaction, under an exclusive advisory lock, so concurrent readers
// observe either the old or the new option set and never a mix. Rows are
// upserted keyed on (marker_id, position), which keeps option ids stable
// across rebuilds; when the recomputed set matches what is stored the
// transaction commits without touching any row, so repeated rebuilds
// leave both the options and the scheme_responses that reference them
// byte-equal.
func (r *MarkerRepository) ReplaceOptions(ctx context.Context, markerID int64, options []domain.MarkerOption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin options tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, int32(optionsLockSpace), int32(markerID)); err != nil {
		return fmt.Errorf("acquire options lock: %w", err)
	}

	existing, err := readOptions(ctx, tx, markerID)
	if err != nil {
		return err
	}
	if optionsEqual(existing, options) {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit options tx: %w", err)
		}
		return nil
	}

	// The boundaries moved, so stored scheme-to-option assignments are
	// stale until the next vector rebuild.
	if _, err := tx.ExecContext(ctx, `
DELETE FROM scheme_responses WHERE marker_id = $1
`, markerID); err != nil {
		return fmt.Errorf("clear scheme responses: %w", err)
	}

	maxPosition := 0
	for _, o := range options {
		if o.Position > maxPosition {
			maxPosition = o.Position
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO marker_options (marker_id, section_id, position, label, lo, hi, weight)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (marker_id, position) DO UPDATE
SET section_id = EXCLUDED.section_id,
    label = EXCLUDED.label,
    lo = EXCLUDED.lo,
    hi = EXCLUDED.hi,
    weight = EXCLUDED.weight
`, markerID, o.SectionID, o.Position, o.Label, o.Lo, o.Hi, o.Weight)
		if err != nil {
			return fmt.Errorf("upsert option position %d: %w", o.Position, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM marker_options WHERE marker_id = $1 AND position > $2
`, markerID, maxPosition); err != nil {
		return fmt.Errorf("trim marker options: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit options tx: %w", err)
	}
	return nil
}

func readOptions(ctx context.Context, tx *sql.Tx, markerID int64) ([]domain.MarkerOption, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT section_id, position, label, lo, hi, weight
FROM marker_options
WHERE marker_id = $1
ORDER BY position
`, markerID)
	if err != nil {
		return nil, fmt.Errorf("read marker options: %w", err)
	}
	defer rows.Close()

	var out []domain.MarkerOption
	for rows.Next() {
		o := domain.MarkerOption{MarkerID: markerID}
		if err := rows.Scan(&o.SectionID, &o.Position, &o.Label, &o.Lo, &o.Hi, &o.Weight); err != nil {
			return nil, fmt.Errorf("scan marker option: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marker options: %w", err)
	}
	return out, nil
}

func optionsEqual(existing, desired []domain.MarkerOption) bool {
	if len(existing) != len(desired) {
		return false
	}
	for i := range existing {
		e, d := existing[i], desired[i]
		if e.SectionID != d.SectionID || e.Position != d.Position || e.Label != d.Label ||
			e.Lo != d.Lo || e.Hi != d.Hi || e.Weight != d.Weight {
			return false
		}
	}
	return true
}

func (r *MarkerRepository) OptionsByMarker(ctx context.Context) (map[int64][]domain.MarkerOption, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, marker_id, section_id, position, label, lo, hi, weight
FROM marker_options
ORDER BY marker_id, position
`)
	if err != nil {
		return nil, fmt.Errorf("list marker options: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.MarkerOption)
	for rows.Next() {
		var o domain.MarkerOption
		if err := rows.Scan(&o.ID, &o.MarkerID, &o.SectionID, &o.Position, &o.Label, &o.Lo, &o.Hi, &o.Weight); err != nil {
			return nil, fmt.Errorf("scan marker option: %w", err)
		}
		out[o.MarkerID] = append(out[o.MarkerID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marker options: %w", err)
	}
	return out, nil
}

// optionsLockSpace namespaces the per-marker advisory locks taken during
// option rebuilds.
const optionsLockSpace = 7201

type markerScanner interface {
	Scan(dest ...any) error
}

func scanMarker(row markerScanner) (domain.Marker, error) {
	var m domain.Marker
	var kind string
	err := row.Scan(&m.ID, &m.SectionID, &m.Name, &m.SourceTable, &m.SourceColumn, &kind, &m.InitialWeight)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Marker{}, err
		}
		return domain.Marker{}, fmt.Errorf("scan marker: %w", err)
	}
	m.Kind = domain.ValueKind(kind)
	return m, nil
}
