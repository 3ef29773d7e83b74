package ports

import (
	"context"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

type HeartbeatStore interface {
	Get(ctx context.Context, agentID domain.AgentID) (domain.HeartbeatRecord, error)
	Save(ctx context.Context, record domain.HeartbeatRecord) error
	Delete(ctx context.Context, agentID domain.AgentID) error
	List(ctx context.Context) ([]domain.HeartbeatRecord, error)
}

type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
