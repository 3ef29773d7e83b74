package memory

import (
	"context"
	"sync"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

type AuditLog struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

var _ ports.AuditLog = (*AuditLog)(nil)

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Append(ctx context.Context, entry domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)

	return nil
}

func (l *AuditLog) List(ctx context.Context) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]domain.AuditEntry, len(l.entries))
	copy(entries, l.entries)

	return entries, nil
}
