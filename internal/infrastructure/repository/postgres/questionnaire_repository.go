package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

type QuestionnaireRepository struct {
	db *sql.DB
}

func NewQuestionnaireRepository(db *sql.DB) *QuestionnaireRepository {
	return &QuestionnaireRepository{db: db}
}

func (r *QuestionnaireRepository) ListSections(ctx context.Context) ([]domain.Section, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name
FROM sections
WHERE NOT deleted
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Section, 0)
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}

func (r *QuestionnaireRepository) GetSection(ctx context.Context, id int64) (*domain.Section, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name
FROM sections
WHERE id = $1 AND NOT deleted
`, id)

	var s domain.Section
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get section", fmt.Errorf("section %d", id))
		}
		return nil, fmt.Errorf("scan section: %w", err)
	}
	return &s, nil
}

func (r *QuestionnaireRepository) ListQuestions(ctx context.Context, sectionID int64) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, section_id, prompt, visible
FROM questions
WHERE section_id = $1 AND NOT deleted
ORDER BY id
`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.SectionID, &q.Prompt, &q.Visible); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (r *QuestionnaireRepository) CountQuestionsBySection(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT section_id, COUNT(*)
FROM questions
WHERE NOT deleted
GROUP BY section_id
`)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var sectionID int64
		var count int
		if err := rows.Scan(&sectionID, &count); err != nil {
			return nil, fmt.Errorf("scan question count: %w", err)
		}
		out[sectionID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question counts: %w", err)
	}
	return out, nil
}

func (r *QuestionnaireRepository) OptionsByQuestion(ctx context.Context, questionIDs []int64) (map[int64][]domain.AllowedResponse, error) {
	out := make(map[int64][]domain.AllowedResponse)
	if len(questionIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, question_id, text, position
FROM allowed_responses
WHERE question_id = ANY($1) AND NOT deleted
ORDER BY question_id, position
`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("list allowed responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.AllowedResponse
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Position); err != nil {
			return nil, fmt.Errorf("scan allowed response: %w", err)
		}
		out[o.QuestionID] = append(out[o.QuestionID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allowed responses: %w", err)
	}
	return out, nil
}

func (r *QuestionnaireRepository) RulesForDependents(ctx context.Context, questionIDs []int64) ([]domain.ConditionalRule, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT dependent_question_id, base_question_id, base_response_id, verdict
FROM conditional_rules
WHERE dependent_question_id = ANY($1)
ORDER BY dependent_question_id, base_question_id
`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("list conditional rules: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConditionalRule, 0)
	for rows.Next() {
		var rule domain.ConditionalRule
		var verdict string
		if err := rows.Scan(&rule.DependentQuestionID, &rule.BaseQuestionID, &rule.BaseResponseID, &verdict); err != nil {
			return nil, fmt.Errorf("scan conditional rule: %w", err)
		}
		rule.Verdict = domain.RuleVerdict(verdict)
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conditional rules: %w", err)
	}
	return out, nil
}
