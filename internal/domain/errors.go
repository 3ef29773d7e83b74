package domain

import "errors"

var (
	ErrUnknownRole        = errors.New("unknown role")
	ErrSessionNotFound    = errors.New("session not found")
	ErrAlreadyRevoked     = errors.New("session already revoked")
	ErrUnknownPosture     = errors.New("unknown threat posture")
	ErrAgentNotRegistered = errors.New("agent not registered")
	ErrSessionMismatch    = errors.New("session id does not match registration")
	ErrAgentCompromised   = errors.New("agent flagged compromised")
	ErrNoChallenge        = errors.New("no outstanding challenge")
	ErrCanarySetNotFound  = errors.New("canary set not found")
	ErrMarkerNotOwned     = errors.New("marker has no owner")
	ErrSwitchNotArmed     = errors.New("kill switch not armed for agent")
	ErrIncidentNotFound   = errors.New("incident not found")
	ErrPhaseNotReady      = errors.New("prior protocol phase not complete")
)
