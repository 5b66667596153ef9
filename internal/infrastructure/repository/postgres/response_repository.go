package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

type ResponseRepository struct {
	db *sql.DB
}

func NewResponseRepository(db *sql.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Stage buffers answers for one (user, section) without touching the
// committed responses. Re-answering a staged question overwrites the
// staged row.
func (r *ResponseRepository) Stage(ctx context.Context, userID, sectionID int64, answers []domain.Answer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stage tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, a := range answers {
		_, err := tx.ExecContext(ctx, `
INSERT INTO response_staging (user_id, section_id, question_id, response_id, staged_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id, question_id)
DO UPDATE SET response_id = EXCLUDED.response_id, section_id = EXCLUDED.section_id, staged_at = EXCLUDED.staged_at
`, userID, sectionID, a.QuestionID, a.ResponseID, now)
		if err != nil {
			return fmt.Errorf("stage answer for question %d: %w", a.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage tx: %w", err)
	}
	return nil
}

// CommitSection moves the staged answers of one section into
// user_responses in a single transaction and reports how many rows moved.
func (r *ResponseRepository) CommitSection(ctx context.Context, userID, sectionID int64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
INSERT INTO user_responses (user_id, question_id, response_id, section_id, updated_at)
SELECT user_id, question_id, response_id, section_id, $3
FROM response_staging
WHERE user_id = $1 AND section_id = $2
ON CONFLICT (user_id, question_id)
DO UPDATE SET response_id = EXCLUDED.response_id, updated_at = EXCLUDED.updated_at
`, userID, sectionID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("flush staged responses: %w", err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("flush rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM response_staging
WHERE user_id = $1 AND section_id = $2
`, userID, sectionID); err != nil {
		return 0, fmt.Errorf("clear staging: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit commit tx: %w", err)
	}
	return int(moved), nil
}

func (r *ResponseRepository) ListByUser(ctx context.Context, userID int64) ([]domain.UserResponse, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, question_id, response_id, section_id
FROM user_responses
WHERE user_id = $1
ORDER BY question_id
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user responses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UserResponse, 0)
	for rows.Next() {
		var ur domain.UserResponse
		if err := rows.Scan(&ur.UserID, &ur.QuestionID, &ur.ResponseID, &ur.SectionID); err != nil {
			return nil, fmt.Errorf("scan user response: %w", err)
		}
		out = append(out, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user responses: %w", err)
	}
	return out, nil
}

func (r *ResponseRepository) ResponsesForQuestions(ctx context.Context, userID int64, questionIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	if len(questionIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT question_id, response_id
FROM user_responses
WHERE user_id = $1 AND question_id = ANY($2)
`, userID, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("list base responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID, responseID int64
		if err := rows.Scan(&questionID, &responseID); err != nil {
			return nil, fmt.Errorf("scan base response: %w", err)
		}
		out[questionID] = responseID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate base responses: %w", err)
	}
	return out, nil
}
