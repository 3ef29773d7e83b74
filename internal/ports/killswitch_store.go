package ports

import (
	"context"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

type KillSwitchStore interface {
	Get(ctx context.Context, agentID domain.AgentID) (domain.KillSwitchState, error)
	Save(ctx context.Context, state domain.KillSwitchState) error
	List(ctx context.Context) ([]domain.KillSwitchState, error)
}

type IncidentStore interface {
	Get(ctx context.Context, id string) (domain.Incident, error)
	Save(ctx context.Context, incident domain.Incident) error
	List(ctx context.Context) ([]domain.Incident, error)
}
