package ports

import (
	"context"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

type SessionStore interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	ListByAgent(ctx context.Context, agentID domain.AgentID) ([]domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
}

type AuditLog interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context) ([]domain.AuditEntry, error)
}
