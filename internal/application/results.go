package application

import (
	"time"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

type InvalidReason string

const (
	InvalidNotFound      InvalidReason = "not_found"
	InvalidRevoked       InvalidReason = "revoked"
	InvalidTokenMismatch InvalidReason = "token_mismatch"
	InvalidExpired       InvalidReason = "expired"
	InvalidScope         InvalidReason = "scope"
)

type IssueResult struct {
	SessionID string
	Token     string
	Scope     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type ValidationResult struct {
	Valid   bool
	AgentID domain.AgentID
	Role    domain.RoleID
	Reason  InvalidReason
}

type HeartbeatFailureReason string

const (
	FailureChallengeExpired HeartbeatFailureReason = "challenge_expired"
	FailureWrongResponse    HeartbeatFailureReason = "wrong_response"
	FailureCompromised      HeartbeatFailureReason = "compromised"
)

type ChallengeTicket struct {
	Seed      string
	ExpiresIn time.Duration
}

type HeartbeatResult struct {
	Success             bool
	Reason              HeartbeatFailureReason
	ConsecutiveMisses   int
	CompromiseTriggered bool
}

type DetectOutcome string

const (
	DetectNotFound            DetectOutcome = "not_found"
	DetectLegitimate          DetectOutcome = "legitimate"
	DetectCompromiseConfirmed DetectOutcome = "compromise_confirmed"
)

type DetectResult struct {
	Outcome            DetectOutcome
	OriginalOwner      domain.AgentID
	DetectionID        string
	RecommendedActions []string
}

type BundleScan struct {
	ForeignCanaries []string
	Clean           bool
}

type CheckResult struct {
	Activated  bool
	Activation domain.ActivationRecord
}

type ProtocolResult struct {
	Incident          domain.Incident
	AllPhasesComplete bool
	FailedPhase       int
	PhaseError        string
}

type SessionSummary struct {
	SessionID     string
	AgentID       domain.AgentID
	Role          domain.RoleID
	Token         string
	Scope         []string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	CanaryMarkers []string
	Warnings      []string
}

type StatusReport struct {
	Posture           domain.ThreatPosture
	ActiveSessions    int
	ExpiredSessions   int
	RevokedSessions   int
	RegisteredAgents  int
	CompromisedAgents int
	ActiveCanarySets  int
	ArmedSwitches     int
	ActivatedSwitches int
	OpenIncidents     int
	ClosedIncidents   int
}
