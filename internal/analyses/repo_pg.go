package analyses

import (
	"context"
	"database/sql"
)

// PGRepo implements RunRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Record inserts a run summary.
func (r *PGRepo) Record(ctx context.Context, run Run) error {
	const query = `
INSERT INTO analysis_runs (
	id, session_hash, source_kind, media_type, status, error_kind, prompt_hash, model, duration_ms, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		run.ID,
		run.SessionHash,
		run.SourceKind,
		run.MediaType,
		string(run.Status),
		run.ErrorKind,
		run.PromptHash,
		run.Model,
		run.DurationMs,
		run.CreatedAt,
	)
	return err
}

// ListBySession returns the newest runs of a session first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionHash string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT id, session_hash, source_kind, media_type, status, error_kind, prompt_hash, model, duration_ms, created_at
FROM analysis_runs
WHERE session_hash = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, sessionHash, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run    Run
			status string
		)
		if err := rows.Scan(
			&run.ID,
			&run.SessionHash,
			&run.SourceKind,
			&run.MediaType,
			&status,
			&run.ErrorKind,
			&run.PromptHash,
			&run.Model,
			&run.DurationMs,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.Status = State(status)
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
