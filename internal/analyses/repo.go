package analyses

import (
	"context"
	"time"
)

// Run is the persisted summary of one invocation. It never holds the résumé
// text, the job description or the result.
type Run struct {
	ID          string    `json:"id"`
	SessionHash string    `json:"-"`
	SourceKind  string    `json:"sourceKind"`
	MediaType   string    `json:"mediaType,omitempty"`
	Status      State     `json:"status"`
	ErrorKind   string    `json:"errorKind,omitempty"`
	PromptHash  string    `json:"promptHash,omitempty"`
	Model       string    `json:"model,omitempty"`
	DurationMs  float64   `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RunRepo records run summaries.
type RunRepo interface {
	Record(ctx context.Context, run Run) error
	ListBySession(ctx context.Context, sessionHash string, limit int) ([]Run, error)
}
