package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores a new entry.
func (r *MemoryRepo) Create(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// ListByProject returns a project's entries, newest first.
func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Entry, error) {
	return r.list(ctx, func(e Entry) bool { return e.ProjectID == projectID }, limit, offset)
}

// ListByOrg returns an organization's entries, newest first.
func (r *MemoryRepo) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Entry, error) {
	return r.list(ctx, func(e Entry) bool { return e.OrganizationID == orgID }, limit, offset)
}

func (r *MemoryRepo) list(ctx context.Context, match func(Entry) bool, limit, offset int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if match(e) {
			out = append(out, e)
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
