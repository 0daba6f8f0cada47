package generatedresumes

import "context"

// Repo defines persistence operations for generated resumes.
type Repo interface {
	Create(ctx context.Context, resume GeneratedResume) error
	GetByID(ctx context.Context, sessionHash, generatedResumeID string) (GeneratedResume, error)
	ListBySession(ctx context.Context, sessionHash string, limit, offset int) ([]GeneratedResume, error)
}
