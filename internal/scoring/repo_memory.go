package scoring

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	scores []Score
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores a new score.
func (r *MemoryRepo) Create(ctx context.Context, s Score) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, s)
	return nil
}

// GetByRun returns the score recorded for a run.
func (r *MemoryRepo) GetByRun(ctx context.Context, runID string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.scores {
		if r.scores[i].RunID == runID {
			return r.scores[i], nil
		}
	}
	return Score{}, ErrNotFound
}

// ListByProject returns a project's scores, newest first.
func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Score, error) {
	return r.list(ctx, func(s Score) bool { return s.ProjectID == projectID }, limit, offset)
}

// ListByBrand returns a brand's scores, newest first.
func (r *MemoryRepo) ListByBrand(ctx context.Context, brandID string, limit, offset int) ([]Score, error) {
	return r.list(ctx, func(s Score) bool { return s.BrandID == brandID }, limit, offset)
}

func (r *MemoryRepo) list(ctx context.Context, match func(Score) bool, limit, offset int) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Score
	for _, s := range r.scores {
		if match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
