package domain

import "time"

type AuditAction string

const (
	AuditIssue         AuditAction = "issue"
	AuditRevoke        AuditAction = "revoke"
	AuditRevokeAll     AuditAction = "revoke_all"
	AuditPostureChange AuditAction = "posture_change"
)

type AuditEntry struct {
	Action    AuditAction
	Actor     string
	AgentID   AgentID
	Role      RoleID
	SessionID string
	At        time.Time
	Detail    string
}
