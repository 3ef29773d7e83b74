package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

const (
	// Base TTL per role class. Issuance under an elevated or critical
	// posture clamps every role to the classified TTL.
	standardTTL   = 8 * time.Hour
	classifiedTTL = 2 * time.Hour

	tokenBytes = 32
)

type CredentialService struct {
	registry ports.CompartmentRegistry
	sessions ports.SessionStore
	audit    ports.AuditLog
	clock    ports.Clock
	logger   *zap.Logger

	postureMu sync.RWMutex
	posture   domain.ThreatPosture
}

func NewCredentialService(registry ports.CompartmentRegistry, sessions ports.SessionStore, audit ports.AuditLog, clock ports.Clock, logger *zap.Logger) *CredentialService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CredentialService{
		registry: registry,
		sessions: sessions,
		audit:    audit,
		clock:    clock,
		logger:   logger,
		posture:  domain.PostureNominal,
	}
}

func (s *CredentialService) Issue(ctx context.Context, agentID domain.AgentID, role domain.RoleID, opContext string) (IssueResult, error) {
	compartment, err := s.registry.Get(ctx, role)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRole) {
			return IssueResult{}, fmt.Errorf("issue for role %q: %w", role, domain.ErrUnknownRole)
		}
		return IssueResult{}, fmt.Errorf("get compartment: %w", err)
	}

	token, err := randomHex(tokenBytes)
	if err != nil {
		return IssueResult{}, fmt.Errorf("generate token: %w", err)
	}

	now := s.clock.Now()
	ttl := s.ttlFor(compartment)

	scope := make([]string, len(compartment.CredentialScope))
	copy(scope, compartment.CredentialScope)

	session := domain.Session{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Role:      role,
		TokenHash: hashToken(token),
		Scope:     scope,
		Context:   opContext,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		TTL:       ttl,
		Status:    domain.SessionActive,
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return IssueResult{}, fmt.Errorf("save session: %w", err)
	}

	if err := s.appendAudit(ctx, domain.AuditEntry{
		Action:    domain.AuditIssue,
		Actor:     "credential-service",
		AgentID:   agentID,
		Role:      role,
		SessionID: session.ID,
		At:        now,
	}); err != nil {
		return IssueResult{}, err
	}

	s.logger.Info("session issued",
		zap.String("agent", string(agentID)),
		zap.String("role", string(role)),
		zap.String("session", session.ID),
		zap.Duration("ttl", ttl))

	return IssueResult{
		SessionID: session.ID,
		Token:     token,
		Scope:     scope,
		IssuedAt:  now,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Validate never mutates state. Reasons are checked in a fixed order so a
// revoked session reports revoked even when its token or TTL would also fail.
func (s *CredentialService) Validate(ctx context.Context, sessionID, token, requestedScope string) (ValidationResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return ValidationResult{Reason: InvalidNotFound}, nil
		}
		return ValidationResult{}, fmt.Errorf("get session: %w", err)
	}

	if session.Status == domain.SessionRevoked {
		return ValidationResult{Reason: InvalidRevoked}, nil
	}

	if !tokenMatches(session.TokenHash, token) {
		return ValidationResult{Reason: InvalidTokenMismatch}, nil
	}

	if session.ExpiredAt(s.clock.Now()) {
		return ValidationResult{Reason: InvalidExpired}, nil
	}

	if requestedScope != "" && !session.HasScope(requestedScope) {
		return ValidationResult{Reason: InvalidScope}, nil
	}

	return ValidationResult{Valid: true, AgentID: session.AgentID, Role: session.Role}, nil
}

func (s *CredentialService) Revoke(ctx context.Context, sessionID, reason, actor string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	now := s.clock.Now()
	if err := session.Revoke(now, reason, actor); err != nil {
		return err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save revoked session: %w", err)
	}

	if err := s.appendAudit(ctx, domain.AuditEntry{
		Action:    domain.AuditRevoke,
		Actor:     actor,
		AgentID:   session.AgentID,
		Role:      session.Role,
		SessionID: sessionID,
		At:        now,
		Detail:    reason,
	}); err != nil {
		return err
	}

	s.logger.Warn("session revoked",
		zap.String("session", sessionID),
		zap.String("reason", reason),
		zap.String("actor", actor))

	return nil
}

func (s *CredentialService) RevokeAll(ctx context.Context, agentID domain.AgentID, reason, actor string) (int, error) {
	sessions, err := s.sessions.ListByAgent(ctx, agentID)
	if err != nil {
		return 0, fmt.Errorf("list agent sessions: %w", err)
	}

	revoked := 0
	now := s.clock.Now()
	for _, session := range sessions {
		if session.Status != domain.SessionActive {
			continue
		}
		if err := session.Revoke(now, reason, actor); err != nil {
			continue
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return revoked, fmt.Errorf("save revoked session: %w", err)
		}
		revoked++
	}

	if err := s.appendAudit(ctx, domain.AuditEntry{
		Action:  domain.AuditRevokeAll,
		Actor:   actor,
		AgentID: agentID,
		At:      now,
		Detail:  fmt.Sprintf("%d sessions: %s", revoked, reason),
	}); err != nil {
		return revoked, err
	}

	return revoked, nil
}

// RotateContacts flags other agents' active sessions for credential rotation.
// The flag set is scoped to sessions sharing an operational context with the
// compromised agent; when the compromised agent recorded no context, every
// other agent's active session is flagged. It does not revoke anything; a
// separate rotation process acts on the returned list.
func (s *CredentialService) RotateContacts(ctx context.Context, compromisedAgentID domain.AgentID) ([]string, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	shared := map[string]bool{}
	for _, session := range sessions {
		if session.AgentID == compromisedAgentID && session.Context != "" {
			shared[session.Context] = true
		}
	}

	var flagged []string
	for _, session := range sessions {
		if session.AgentID == compromisedAgentID || session.Status != domain.SessionActive {
			continue
		}
		if len(shared) > 0 && !shared[session.Context] {
			continue
		}
		flagged = append(flagged, session.ID)
	}

	return flagged, nil
}

// SetThreatPosture affects the TTL of future issuances only.
func (s *CredentialService) SetThreatPosture(ctx context.Context, posture domain.ThreatPosture, actor string) error {
	if !posture.Valid() {
		return fmt.Errorf("set posture %q: %w", posture, domain.ErrUnknownPosture)
	}

	s.postureMu.Lock()
	s.posture = posture
	s.postureMu.Unlock()

	if err := s.appendAudit(ctx, domain.AuditEntry{
		Action: domain.AuditPostureChange,
		Actor:  actor,
		At:     s.clock.Now(),
		Detail: string(posture),
	}); err != nil {
		return err
	}

	s.logger.Info("threat posture changed", zap.String("posture", string(posture)), zap.String("actor", actor))

	return nil
}

func (s *CredentialService) ThreatPosture() domain.ThreatPosture {
	s.postureMu.RLock()
	defer s.postureMu.RUnlock()

	return s.posture
}

func (s *CredentialService) Sessions(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.List(ctx)
}

func (s *CredentialService) ttlFor(compartment domain.Compartment) time.Duration {
	if s.ThreatPosture().ShortensTTL() {
		return classifiedTTL
	}
	if compartment.IdentityClassified || compartment.GeneTier >= 3 {
		return classifiedTTL
	}
	return standardTTL
}

func (s *CredentialService) appendAudit(ctx context.Context, entry domain.AuditEntry) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenMatches(storedHash, token string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(hashToken(token))) == 1
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
