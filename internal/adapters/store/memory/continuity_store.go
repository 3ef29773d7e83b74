package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

type HeartbeatStore struct {
	mu      sync.RWMutex
	records map[domain.AgentID]domain.HeartbeatRecord
}

var _ ports.HeartbeatStore = (*HeartbeatStore)(nil)

func NewHeartbeatStore() *HeartbeatStore {
	return &HeartbeatStore{records: map[domain.AgentID]domain.HeartbeatRecord{}}
}

func (s *HeartbeatStore) Get(ctx context.Context, agentID domain.AgentID) (domain.HeartbeatRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.HeartbeatRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[agentID]
	if !ok {
		return domain.HeartbeatRecord{}, domain.ErrAgentNotRegistered
	}

	return record, nil
}

func (s *HeartbeatStore) Save(ctx context.Context, record domain.HeartbeatRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.AgentID] = record

	return nil
}

func (s *HeartbeatStore) Delete(ctx context.Context, agentID domain.AgentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, agentID)

	return nil
}

func (s *HeartbeatStore) List(ctx context.Context) ([]domain.HeartbeatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.HeartbeatRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	return records, nil
}

type SecretStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

var _ ports.SecretStore = (*SecretStore)(nil)

func NewSecretStore() *SecretStore {
	return &SecretStore{secrets: map[string]string{}}
}

func (s *SecretStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.secrets[key]
	if !ok {
		return "", fmt.Errorf("memory secret %q not found", key)
	}

	return value, nil
}

func (s *SecretStore) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.secrets[key] = value

	return nil
}

func (s *SecretStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.secrets, key)

	return nil
}
