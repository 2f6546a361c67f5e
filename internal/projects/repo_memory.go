package projects

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Project
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Project)}
}

// Create stores a new project.
func (r *MemoryRepo) Create(ctx context.Context, p Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

// GetByID returns a project by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

// ListByOrg returns an organization's projects, newest first.
func (r *MemoryRepo) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var all []Project
	for _, p := range r.data {
		if p.OrganizationID == orgID {
			all = append(all, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []Project{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// CountByOrg returns how many projects an organization owns.
func (r *MemoryRepo) CountByOrg(ctx context.Context, orgID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, p := range r.data {
		if p.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

// UpdateBudgets applies partial budget updates.
func (r *MemoryRepo) UpdateBudgets(ctx context.Context, id string, soft, hard *float64) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	if soft != nil {
		p.MonthlyBudgetSoft = *soft
	}
	if hard != nil {
		p.MonthlyBudgetHard = *hard
	}
	p.UpdatedAt = time.Now().UTC()
	r.data[id] = p
	return p, nil
}

// AddUsage increments the running monthly spend with month rollover.
func (r *MemoryRepo) AddUsage(ctx context.Context, id string, cost float64, month string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	if p.UsageMonth != month {
		p.CurrentMonthUsage = cost
		p.UsageMonth = month
	} else {
		p.CurrentMonthUsage += cost
	}
	p.UpdatedAt = time.Now().UTC()
	r.data[id] = p
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
