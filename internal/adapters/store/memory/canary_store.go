package memory

import (
	"context"
	"sync"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

type CanaryStore struct {
	mu     sync.RWMutex
	sets   map[domain.AgentID]domain.CanarySet
	owners map[string]domain.AgentID
}

var _ ports.CanaryStore = (*CanaryStore)(nil)

func NewCanaryStore() *CanaryStore {
	return &CanaryStore{
		sets:   map[domain.AgentID]domain.CanarySet{},
		owners: map[string]domain.AgentID{},
	}
}

func (s *CanaryStore) GetSet(ctx context.Context, agentID domain.AgentID) (domain.CanarySet, error) {
	if err := ctx.Err(); err != nil {
		return domain.CanarySet{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[agentID]
	if !ok {
		return domain.CanarySet{}, domain.ErrCanarySetNotFound
	}

	return set, nil
}

func (s *CanaryStore) SaveSet(ctx context.Context, set domain.CanarySet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets[set.AgentID] = set

	return nil
}

func (s *CanaryStore) ListSets(ctx context.Context) ([]domain.CanarySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sets := make([]domain.CanarySet, 0, len(s.sets))
	for _, set := range s.sets {
		sets = append(sets, set)
	}

	return sets, nil
}

func (s *CanaryStore) Owner(ctx context.Context, marker string) (domain.AgentID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[marker]
	if !ok {
		return "", domain.ErrMarkerNotOwned
	}

	return owner, nil
}

func (s *CanaryStore) PutOwner(ctx context.Context, marker string, agentID domain.AgentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners[marker] = agentID

	return nil
}

func (s *CanaryStore) DeleteOwner(ctx context.Context, marker string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.owners, marker)

	return nil
}
