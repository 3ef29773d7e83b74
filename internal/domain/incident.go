package domain

import "time"

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

type BlastRadius string

const (
	BlastContained   BlastRadius = "contained"
	BlastSingleOrgan BlastRadius = "single_organ"
	BlastCrossOrgan  BlastRadius = "cross_organ"
	BlastSystemic    BlastRadius = "systemic"
)

type IncidentStatus string

const (
	IncidentOpen                IncidentStatus = "open"
	IncidentPhase1Complete      IncidentStatus = "phase_1_complete"
	IncidentPhase2Complete      IncidentStatus = "phase_2_complete"
	IncidentRemediationComplete IncidentStatus = "remediation_complete"
)

type IsolationRecord struct {
	SessionsRevoked   int
	RotationFlagged   []string
	CredentialService string
	CompletedAt       time.Time
}

type AssessmentRecord struct {
	CredentialsExposed []string
	KnowledgeExposed   []string
	BlastRadius        BlastRadius
	Severity           Severity
	CompletedAt        time.Time
}

type RemediationRecord struct {
	Actions        []string
	StandingFrozen bool
	ReportRequired bool
	CompletedAt    time.Time
}

type Incident struct {
	ID          string
	AgentID     AgentID
	Role        RoleID
	Trigger     KillTrigger
	DetectedBy  string
	Detail      string
	Severity    Severity
	Status      IncidentStatus
	Isolation   *IsolationRecord
	Assessment  *AssessmentRecord
	Remediation *RemediationRecord
	OpenedAt    time.Time
	ClosedAt    time.Time
}

// Deterministic fallbacks used when no richer damage model is wired in. The
// tables are keyed by the built-in role set; unlisted roles assess as a
// moderate, single-organ event.
var severityFallback = map[RoleID]Severity{
	"citizen":    SeverityMinor,
	"courier":    SeverityModerate,
	"archivist":  SeverityModerate,
	"magistrate": SeveritySevere,
	"treasurer":  SeveritySevere,
	"warden":     SeverityCritical,
}

var blastRadiusFallback = map[RoleID]BlastRadius{
	"citizen":    BlastContained,
	"courier":    BlastSingleOrgan,
	"archivist":  BlastSingleOrgan,
	"magistrate": BlastCrossOrgan,
	"treasurer":  BlastCrossOrgan,
	"warden":     BlastSystemic,
}

func FallbackSeverity(role RoleID) Severity {
	if s, ok := severityFallback[role]; ok {
		return s
	}
	return SeverityModerate
}

func FallbackBlastRadius(role RoleID) BlastRadius {
	if b, ok := blastRadiusFallback[role]; ok {
		return b
	}
	return BlastSingleOrgan
}

// RemediationActions scales the action list to severity. Each tier is a
// superset of the one below it.
func RemediationActions(severity Severity) []string {
	actions := []string{"rotate_session_tokens"}
	if severity == SeverityMinor {
		return actions
	}

	actions = append(actions, "rotate_credentials", "notify_contacts")
	if severity == SeverityModerate {
		return actions
	}

	actions = append(actions, "cross_system_rotation", "escalation_notifications")
	if severity == SeveritySevere {
		return actions
	}

	return append(actions, "full_lockdown", "full_audit")
}
