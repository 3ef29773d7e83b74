package toml

import (
	"fmt"
	"time"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

const schemaVersion = 1

type sessionsFileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

type sessionSchema struct {
	ID               string   `toml:"id"`
	AgentID          string   `toml:"agent_id"`
	Role             string   `toml:"role"`
	TokenHash        string   `toml:"token_hash"`
	Scope            []string `toml:"scope"`
	Context          string   `toml:"context,omitempty"`
	IssuedAt         string   `toml:"issued_at"`
	ExpiresAt        string   `toml:"expires_at"`
	TTLSeconds       int64    `toml:"ttl_seconds"`
	Status           string   `toml:"status"`
	RevokedAt        string   `toml:"revoked_at,omitempty"`
	RevocationReason string   `toml:"revocation_reason,omitempty"`
	RevokedBy        string   `toml:"revoked_by,omitempty"`
}

type auditFileSchema struct {
	Version int           `toml:"version"`
	Entries []auditSchema `toml:"entries"`
}

type auditSchema struct {
	Action    string `toml:"action"`
	Actor     string `toml:"actor"`
	AgentID   string `toml:"agent_id"`
	Role      string `toml:"role,omitempty"`
	SessionID string `toml:"session_id,omitempty"`
	At        string `toml:"at"`
	Detail    string `toml:"detail,omitempty"`
}

func (f *sessionsFileSchema) applyDefaults() {
	if f.Version == 0 {
		f.Version = schemaVersion
	}
}

func (f sessionsFileSchema) validateVersion() error {
	if f.Version != 0 && f.Version != schemaVersion {
		return fmt.Errorf("unsupported sessions file version %d", f.Version)
	}
	return nil
}

func (f *auditFileSchema) applyDefaults() {
	if f.Version == 0 {
		f.Version = schemaVersion
	}
}

func (f auditFileSchema) validateVersion() error {
	if f.Version != 0 && f.Version != schemaVersion {
		return fmt.Errorf("unsupported audit file version %d", f.Version)
	}
	return nil
}

func toSessionSchema(session domain.Session) sessionSchema {
	return sessionSchema{
		ID:               session.ID,
		AgentID:          string(session.AgentID),
		Role:             string(session.Role),
		TokenHash:        session.TokenHash,
		Scope:            session.Scope,
		Context:          session.Context,
		IssuedAt:         formatTime(session.IssuedAt),
		ExpiresAt:        formatTime(session.ExpiresAt),
		TTLSeconds:       int64(session.TTL / time.Second),
		Status:           string(session.Status),
		RevokedAt:        formatTime(session.RevokedAt),
		RevocationReason: session.RevocationReason,
		RevokedBy:        session.RevokedBy,
	}
}

func fromSessionSchema(entry sessionSchema) domain.Session {
	return domain.Session{
		ID:               entry.ID,
		AgentID:          domain.AgentID(entry.AgentID),
		Role:             domain.RoleID(entry.Role),
		TokenHash:        entry.TokenHash,
		Scope:            entry.Scope,
		Context:          entry.Context,
		IssuedAt:         parseTime(entry.IssuedAt),
		ExpiresAt:        parseTime(entry.ExpiresAt),
		TTL:              time.Duration(entry.TTLSeconds) * time.Second,
		Status:           domain.SessionStatus(entry.Status),
		RevokedAt:        parseTime(entry.RevokedAt),
		RevocationReason: entry.RevocationReason,
		RevokedBy:        entry.RevokedBy,
	}
}

func toAuditSchema(entry domain.AuditEntry) auditSchema {
	return auditSchema{
		Action:    string(entry.Action),
		Actor:     entry.Actor,
		AgentID:   string(entry.AgentID),
		Role:      string(entry.Role),
		SessionID: entry.SessionID,
		At:        formatTime(entry.At),
		Detail:    entry.Detail,
	}
}

func fromAuditSchema(entry auditSchema) domain.AuditEntry {
	return domain.AuditEntry{
		Action:    domain.AuditAction(entry.Action),
		Actor:     entry.Actor,
		AgentID:   domain.AgentID(entry.AgentID),
		Role:      domain.RoleID(entry.Role),
		SessionID: entry.SessionID,
		At:        parseTime(entry.At),
		Detail:    entry.Detail,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
