package runs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]PromptRun
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]PromptRun)}
}

// Create stores a new run.
func (r *MemoryRepo) Create(ctx context.Context, run PromptRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[run.ID] = run
	return nil
}

// GetByID returns a run by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (PromptRun, error) {
	if err := ctx.Err(); err != nil {
		return PromptRun{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.data[id]
	if !ok {
		return PromptRun{}, ErrNotFound
	}
	return run, nil
}

// Finish persists a run's terminal state.
func (r *MemoryRepo) Finish(ctx context.Context, run PromptRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[run.ID]; !ok {
		return ErrNotFound
	}
	r.data[run.ID] = run
	return nil
}

// ListByPrompt returns a prompt's runs, newest first.
func (r *MemoryRepo) ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]PromptRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(run PromptRun) bool { return run.PromptID == promptID }, limit, offset), nil
}

// ListByProject returns a project's runs, newest first.
func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]PromptRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(run PromptRun) bool { return run.ProjectID == projectID }, limit, offset), nil
}

func (r *MemoryRepo) list(match func(PromptRun) bool, limit, offset int) []PromptRun {
	var out []PromptRun
	for _, run := range r.data {
		if match(run) {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ListCompletedForPromptSince returns completed runs in the trailing window,
// oldest first.
func (r *MemoryRepo) ListCompletedForPromptSince(ctx context.Context, promptID string, since time.Time, excludeRunID string) ([]PromptRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PromptRun
	for _, run := range r.data {
		if run.PromptID != promptID || run.ID == excludeRunID {
			continue
		}
		if run.Status != StatusCompleted || run.CreatedAt.Before(since) {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)

// MemoryCitationsRepo is an in-memory implementation of CitationsRepo.
type MemoryCitationsRepo struct {
	mu   sync.RWMutex
	data map[string][]Citation
}

// NewMemoryCitationsRepo constructs a MemoryCitationsRepo.
func NewMemoryCitationsRepo() *MemoryCitationsRepo {
	return &MemoryCitationsRepo{data: make(map[string][]Citation)}
}

// CreateBatch stores a run's citations.
func (r *MemoryCitationsRepo) CreateBatch(ctx context.Context, citations []Citation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range citations {
		r.data[c.RunID] = append(r.data[c.RunID], c)
	}
	return nil
}

// ListByRun returns a run's citations in position order.
func (r *MemoryCitationsRepo) ListByRun(ctx context.Context, runID string) ([]Citation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.data[runID]
	out := make([]Citation, len(list))
	copy(out, list)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out, nil
}

var _ CitationsRepo = (*MemoryCitationsRepo)(nil)
