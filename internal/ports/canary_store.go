package ports

import (
	"context"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

type CanaryStore interface {
	GetSet(ctx context.Context, agentID domain.AgentID) (domain.CanarySet, error)
	SaveSet(ctx context.Context, set domain.CanarySet) error
	ListSets(ctx context.Context) ([]domain.CanarySet, error)
	Owner(ctx context.Context, marker string) (domain.AgentID, error)
	PutOwner(ctx context.Context, marker string, agentID domain.AgentID) error
	DeleteOwner(ctx context.Context, marker string) error
}
