package domain

import "time"

type AgentID string
type RoleID string

// Compartment is a role's static authorization profile. Registry entries are
// read-only; services copy what they need at binding time.
type Compartment struct {
	Role                RoleID
	CredentialScope     []string
	KnowledgeBoundary   []string
	KnowledgeExclusions []string
	HeartbeatInterval   time.Duration
	MissThreshold       int
	GeneTier            int
	IdentityClassified  bool
}

func (c Compartment) HasScope(scope string) bool {
	for _, s := range c.CredentialScope {
		if s == scope {
			return true
		}
	}
	return false
}
