package domain

import "time"

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
	SessionRevoked SessionStatus = "revoked"
)

type ThreatPosture string

const (
	PostureNominal    ThreatPosture = "nominal"
	PostureHeightened ThreatPosture = "heightened"
	PostureElevated   ThreatPosture = "elevated"
	PostureCritical   ThreatPosture = "critical"
)

func (p ThreatPosture) Valid() bool {
	switch p {
	case PostureNominal, PostureHeightened, PostureElevated, PostureCritical:
		return true
	default:
		return false
	}
}

// ShortensTTL reports whether issuance under this posture clamps credential
// lifetime to the shortest role-class TTL.
func (p ThreatPosture) ShortensTTL() bool {
	return p == PostureElevated || p == PostureCritical
}

type Session struct {
	ID               string
	AgentID          AgentID
	Role             RoleID
	TokenHash        string
	Scope            []string
	Context          string
	IssuedAt         time.Time
	ExpiresAt        time.Time
	TTL              time.Duration
	Status           SessionStatus
	RevokedAt        time.Time
	RevocationReason string
	RevokedBy        string
}

func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// EffectiveStatus derives the reported status without a store write: an
// active session past its expiry reads as expired.
func (s Session) EffectiveStatus(now time.Time) SessionStatus {
	if s.Status == SessionActive && s.ExpiredAt(now) {
		return SessionExpired
	}
	return s.Status
}

func (s Session) HasScope(scope string) bool {
	for _, v := range s.Scope {
		if v == scope {
			return true
		}
	}
	return false
}

// Revoke is the only transition out of the active state. Revocation is
// terminal: a second revoke is rejected rather than overwriting the record.
func (s *Session) Revoke(now time.Time, reason, actor string) error {
	if s.Status == SessionRevoked {
		return ErrAlreadyRevoked
	}

	s.Status = SessionRevoked
	s.RevokedAt = now
	s.RevocationReason = reason
	s.RevokedBy = actor

	return nil
}
