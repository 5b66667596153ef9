package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

type VectorRepository struct {
	db *sql.DB
}

func NewVectorRepository(db *sql.DB) *VectorRepository {
	return &VectorRepository{db: db}
}

// Advisory lock namespaces serializing per-subject embed writes.
const (
	userVectorLockSpace   = 7301
	schemeVectorLockSpace = 7302
)

// UpsertUserVector replaces the user's vector; concurrent writes for the
// same user are serialized by a per-user advisory lock.
func (r *VectorRepository) UpsertUserVector(ctx context.Context, userID int64, vec domain.SectionVector, initialized bool) error {
	payload, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal user vector: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user vector tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, int32(userVectorLockSpace), int32(userID)); err != nil {
		return fmt.Errorf("acquire user vector lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO user_vectors (user_id, vector, initialized, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id)
DO UPDATE SET vector = EXCLUDED.vector, initialized = EXCLUDED.initialized, updated_at = EXCLUDED.updated_at
`, userID, payload, initialized, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert user vector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user vector tx: %w", err)
	}
	return nil
}

func (r *VectorRepository) GetUserVector(ctx context.Context, userID int64) (domain.SectionVector, bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT vector, initialized
FROM user_vectors
WHERE user_id = $1
`, userID)

	var payload []byte
	var initialized bool
	if err := row.Scan(&payload, &initialized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get user vector: %w", err)
	}

	var vec domain.SectionVector
	if err := json.Unmarshal(payload, &vec); err != nil {
		return nil, false, fmt.Errorf("unmarshal user vector: %w", err)
	}
	return vec, initialized, nil
}

// SaveSchemeEmbedding replaces the scheme's responses, marker weights
// and vector atomically. Response persistence precedes the vector upsert
// inside the same transaction, so the ranker only ever observes complete
// embeds; last writer wins under the per-scheme advisory lock.
func (r *VectorRepository) SaveSchemeEmbedding(
	ctx context.Context,
	code string,
	responses []domain.SchemeResponse,
	weights []domain.MarkerWeight,
	vec domain.SectionVector,
) error {
	payload, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal scheme vector: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scheme embed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, int32(schemeVectorLockSpace), code); err != nil {
		return fmt.Errorf("acquire scheme embed lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheme_responses WHERE scheme_code = $1`, code); err != nil {
		return fmt.Errorf("clear scheme responses: %w", err)
	}
	for _, sr := range responses {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO scheme_responses (scheme_code, marker_id, option_id, section_id)
VALUES ($1,$2,$3,$4)
`, sr.SchemeCode, sr.MarkerID, sr.OptionID, sr.SectionID); err != nil {
			return fmt.Errorf("insert scheme response marker %d: %w", sr.MarkerID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM marker_weight_per_fund WHERE scheme_code = $1`, code); err != nil {
		return fmt.Errorf("clear marker weights: %w", err)
	}
	for _, w := range weights {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO marker_weight_per_fund (scheme_code, marker_id, section_id, weight)
VALUES ($1,$2,$3,$4)
`, w.SchemeCode, w.MarkerID, w.SectionID, w.Weight); err != nil {
			return fmt.Errorf("insert marker weight marker %d: %w", w.MarkerID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO scheme_vectors (scheme_code, vector, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (scheme_code)
DO UPDATE SET vector = EXCLUDED.vector, updated_at = EXCLUDED.updated_at
`, code, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert scheme vector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scheme embed tx: %w", err)
	}
	return nil
}

func (r *VectorRepository) SchemeVectors(ctx context.Context, codes []string) (map[string]domain.SectionVector, error) {
	out := make(map[string]domain.SectionVector)
	if len(codes) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT scheme_code, vector
FROM scheme_vectors
WHERE scheme_code = ANY($1)
ORDER BY scheme_code
`, codes)
	if err != nil {
		return nil, fmt.Errorf("list scheme vectors: %w", err)
	}
	defer rows.Close()

	return scanSchemeVectors(rows, out)
}

func (r *VectorRepository) AllSchemeVectors(ctx context.Context) (map[string]domain.SectionVector, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT scheme_code, vector
FROM scheme_vectors
ORDER BY scheme_code
`)
	if err != nil {
		return nil, fmt.Errorf("list all scheme vectors: %w", err)
	}
	defer rows.Close()

	return scanSchemeVectors(rows, make(map[string]domain.SectionVector))
}

func scanSchemeVectors(rows *sql.Rows, out map[string]domain.SectionVector) (map[string]domain.SectionVector, error) {
	for rows.Next() {
		var code string
		var payload []byte
		if err := rows.Scan(&code, &payload); err != nil {
			return nil, fmt.Errorf("scan scheme vector: %w", err)
		}
		var vec domain.SectionVector
		if err := json.Unmarshal(payload, &vec); err != nil {
			return nil, fmt.Errorf("unmarshal scheme vector %q: %w", code, err)
		}
		out[code] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheme vectors: %w", err)
	}
	return out, nil
}
