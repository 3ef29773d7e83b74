package memory

import (
	"context"
	"sync"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

type KillSwitchStore struct {
	mu     sync.RWMutex
	states map[domain.AgentID]domain.KillSwitchState
}

var _ ports.KillSwitchStore = (*KillSwitchStore)(nil)

func NewKillSwitchStore() *KillSwitchStore {
	return &KillSwitchStore{states: map[domain.AgentID]domain.KillSwitchState{}}
}

func (s *KillSwitchStore) Get(ctx context.Context, agentID domain.AgentID) (domain.KillSwitchState, error) {
	if err := ctx.Err(); err != nil {
		return domain.KillSwitchState{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[agentID]
	if !ok {
		return domain.KillSwitchState{}, domain.ErrSwitchNotArmed
	}

	return state, nil
}

func (s *KillSwitchStore) Save(ctx context.Context, state domain.KillSwitchState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.AgentID] = state

	return nil
}

func (s *KillSwitchStore) List(ctx context.Context) ([]domain.KillSwitchState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]domain.KillSwitchState, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, state)
	}

	return states, nil
}

type IncidentStore struct {
	mu        sync.RWMutex
	incidents map[string]domain.Incident
	order     []string
}

var _ ports.IncidentStore = (*IncidentStore)(nil)

func NewIncidentStore() *IncidentStore {
	return &IncidentStore{incidents: map[string]domain.Incident{}}
}

func (s *IncidentStore) Get(ctx context.Context, id string) (domain.Incident, error) {
	if err := ctx.Err(); err != nil {
		return domain.Incident{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	incident, ok := s.incidents[id]
	if !ok {
		return domain.Incident{}, domain.ErrIncidentNotFound
	}

	return incident, nil
}

func (s *IncidentStore) Save(ctx context.Context, incident domain.Incident) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incidents[incident.ID]; !ok {
		s.order = append(s.order, incident.ID)
	}
	s.incidents[incident.ID] = incident

	return nil
}

func (s *IncidentStore) List(ctx context.Context) ([]domain.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	incidents := make([]domain.Incident, 0, len(s.order))
	for _, id := range s.order {
		incidents = append(incidents, s.incidents[id])
	}

	return incidents, nil
}
