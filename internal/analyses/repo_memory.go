package analyses

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores run summaries in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Run
	bySession map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Run),
		bySession: make(map[string][]string),
	}
}

// Record stores the run.
func (r *MemoryRepo) Record(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[run.ID]; !exists {
		r.bySession[run.SessionHash] = append(r.bySession[run.SessionHash], run.ID)
	}
	r.byID[run.ID] = run
	return nil
}

// ListBySession returns the newest runs of a session first.
func (r *MemoryRepo) ListBySession(ctx context.Context, sessionHash string, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySession[sessionHash]
	out := make([]Run, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
