package ports

import (
	"context"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

type CompartmentRegistry interface {
	Get(ctx context.Context, role domain.RoleID) (domain.Compartment, error)
	Roles(ctx context.Context) ([]domain.RoleID, error)
}
