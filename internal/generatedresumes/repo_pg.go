package generatedresumes

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a generated resume.
func (r *PGRepo) Create(ctx context.Context, resume GeneratedResume) error {
	const query = `
INSERT INTO generated_resumes (
    id, session_hash, file_name, storage_key, size_bytes, created_at
) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		resume.ID,
		resume.SessionHash,
		resume.FileName,
		resume.StorageKey,
		resume.SizeBytes,
		resume.CreatedAt,
	)
	return err
}

// GetByID returns a generated resume owned by the session.
func (r *PGRepo) GetByID(ctx context.Context, sessionHash, generatedResumeID string) (GeneratedResume, error) {
	const query = `
SELECT id, session_hash, file_name, storage_key, size_bytes, created_at
FROM generated_resumes
WHERE id = $1 AND session_hash = $2
LIMIT 1`
	var resume GeneratedResume
	err := r.DB.QueryRowContext(ctx, query, generatedResumeID, sessionHash).Scan(
		&resume.ID,
		&resume.SessionHash,
		&resume.FileName,
		&resume.StorageKey,
		&resume.SizeBytes,
		&resume.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GeneratedResume{}, ErrNotFound
		}
		return GeneratedResume{}, err
	}
	return resume, nil
}

// ListBySession lists generated resumes ordered newest-first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionHash string, limit, offset int) ([]GeneratedResume, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, session_hash, file_name, storage_key, size_bytes, created_at
FROM generated_resumes
WHERE session_hash = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, sessionHash, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GeneratedResume{}
	for rows.Next() {
		var resume GeneratedResume
		if err := rows.Scan(
			&resume.ID,
			&resume.SessionHash,
			&resume.FileName,
			&resume.StorageKey,
			&resume.SizeBytes,
			&resume.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
