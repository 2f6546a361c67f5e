package usage

import (
	"context"
	"sync"
)

type periodKey struct {
	orgID  string
	period string
}

type memoryStore struct {
	mu   sync.RWMutex
	data map[periodKey]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[periodKey]int)}
}

func (s *memoryStore) Get(ctx context.Context, orgID, period string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Usage{
		OrganizationID: orgID,
		Period:         period,
		Used:           s.data[periodKey{orgID, period}],
	}, nil
}

func (s *memoryStore) Record(ctx context.Context, orgID, period string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKey{orgID, period}
	s.data[key]++
	return Usage{
		OrganizationID: orgID,
		Period:         period,
		Used:           s.data[key],
	}, nil
}

var _ store = (*memoryStore)(nil)
