package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the questionnaire, registry, scheme and vector
// tables idempotently.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sections (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS questions (
	id BIGINT PRIMARY KEY,
	section_id BIGINT NOT NULL REFERENCES sections(id),
	prompt TEXT NOT NULL,
	visible BOOLEAN NOT NULL DEFAULT TRUE,
	deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS allowed_responses (
	id BIGINT PRIMARY KEY,
	question_id BIGINT NOT NULL REFERENCES questions(id),
	text TEXT NOT NULL,
	position INT NOT NULL,
	deleted BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (question_id, position)
);

CREATE TABLE IF NOT EXISTS conditional_rules (
	dependent_question_id BIGINT NOT NULL REFERENCES questions(id),
	base_question_id BIGINT NOT NULL REFERENCES questions(id),
	base_response_id BIGINT NOT NULL REFERENCES allowed_responses(id),
	verdict TEXT NOT NULL,
	PRIMARY KEY (dependent_question_id, base_question_id, base_response_id)
);

CREATE TABLE IF NOT EXISTS user_responses (
	user_id BIGINT NOT NULL,
	question_id BIGINT NOT NULL REFERENCES questions(id),
	response_id BIGINT NOT NULL REFERENCES allowed_responses(id),
	section_id BIGINT NOT NULL REFERENCES sections(id),
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, question_id)
);

CREATE TABLE IF NOT EXISTS response_staging (
	user_id BIGINT NOT NULL,
	section_id BIGINT NOT NULL,
	question_id BIGINT NOT NULL REFERENCES questions(id),
	response_id BIGINT NOT NULL REFERENCES allowed_responses(id),
	staged_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, question_id)
);

CREATE TABLE IF NOT EXISTS markers (
	id BIGINT PRIMARY KEY,
	section_id BIGINT NOT NULL REFERENCES sections(id),
	name TEXT NOT NULL UNIQUE,
	source_table TEXT NOT NULL,
	source_column TEXT NOT NULL,
	kind TEXT NOT NULL,
	initial_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS marker_options (
	id BIGSERIAL PRIMARY KEY,
	marker_id BIGINT NOT NULL REFERENCES markers(id),
	section_id BIGINT NOT NULL REFERENCES sections(id),
	position INT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	lo DOUBLE PRECISION NOT NULL DEFAULT 0,
	hi DOUBLE PRECISION NOT NULL DEFAULT 0,
	weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	UNIQUE (marker_id, position)
);

CREATE TABLE IF NOT EXISTS scheme_responses (
	scheme_code TEXT NOT NULL,
	marker_id BIGINT NOT NULL REFERENCES markers(id),
	option_id BIGINT NOT NULL REFERENCES marker_options(id),
	section_id BIGINT NOT NULL REFERENCES sections(id),
	PRIMARY KEY (scheme_code, marker_id)
);

CREATE TABLE IF NOT EXISTS marker_weight_per_fund (
	scheme_code TEXT NOT NULL,
	marker_id BIGINT NOT NULL REFERENCES markers(id),
	section_id BIGINT NOT NULL REFERENCES sections(id),
	weight DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (scheme_code, marker_id)
);

CREATE TABLE IF NOT EXISTS scheme_master (
	scheme_code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	asset_type TEXT NOT NULL DEFAULT '',
	sub_category TEXT NOT NULL DEFAULT '',
	risk_colour TEXT NOT NULL DEFAULT '',
	sip_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	return_1y DOUBLE PRECISION NOT NULL DEFAULT 0,
	return_3y DOUBLE PRECISION NOT NULL DEFAULT 0,
	launch_date DATE,
	status TEXT NOT NULL DEFAULT 'Active',
	deleted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_scheme_master_status ON scheme_master(status) WHERE NOT deleted;

CREATE TABLE IF NOT EXISTS user_vectors (
	user_id BIGINT PRIMARY KEY,
	vector JSONB NOT NULL,
	initialized BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scheme_vectors (
	scheme_code TEXT PRIMARY KEY,
	vector JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
