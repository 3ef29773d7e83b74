package domain

import "time"

type KillSwitchPhase string

const (
	SwitchArmed     KillSwitchPhase = "armed"
	SwitchActivated KillSwitchPhase = "activated"
)

type KillTrigger string

const (
	TriggerHeartbeatFailures KillTrigger = "heartbeat_failures"
	TriggerPromptMismatch    KillTrigger = "prompt_mismatch"
	TriggerEndpointMismatch  KillTrigger = "endpoint_mismatch"
	TriggerQueryPattern      KillTrigger = "query_pattern"
	TriggerDeadHeartbeat     KillTrigger = "dead_heartbeat"
	TriggerManual            KillTrigger = "manual"
)

type WipeStep string

const (
	WipeWorkingMemory      WipeStep = "overwrite_working_memory"
	WipeCredentialMaterial WipeStep = "wipe_credential_material"
	WipeSessionTokens      WipeStep = "expire_session_tokens"
	WipeFinalBeacon        WipeStep = "emit_final_beacon"
	WipeEnterInert         WipeStep = "enter_inert_state"
)

// WipeSequence is the fixed, ordered sequence the switch declares on
// activation. Executing the steps against other subsystems is the
// orchestrator's job, not the switch's.
func WipeSequence() []WipeStep {
	return []WipeStep{
		WipeWorkingMemory,
		WipeCredentialMaterial,
		WipeSessionTokens,
		WipeFinalBeacon,
		WipeEnterInert,
	}
}

type ActivationRecord struct {
	ID      string
	Trigger KillTrigger
	Detail  string
	At      time.Time
	Wipe    []WipeStep
}

type KillSwitchState struct {
	AgentID              AgentID
	Phase                KillSwitchPhase
	MissThreshold        int
	AuthorizedEndpoints  []string
	AuthorizedPromptHash string
	QueryWindow          time.Duration
	QueryThreshold       int
	SensitiveHits        []time.Time
	ArmedAt              time.Time
	Activation           *ActivationRecord
}

func (s KillSwitchState) EndpointAuthorized(endpoint string) bool {
	// No armed endpoint set means relocation detection is off for this agent.
	if len(s.AuthorizedEndpoints) == 0 {
		return true
	}
	for _, e := range s.AuthorizedEndpoints {
		if e == endpoint {
			return true
		}
	}
	return false
}

// Activate applies the one-way armed -> activated transition. The returned
// bool reports whether this call performed the transition; when the switch is
// already activated the original record is returned untouched.
func (s *KillSwitchState) Activate(record ActivationRecord) (ActivationRecord, bool) {
	if s.Phase == SwitchActivated && s.Activation != nil {
		return *s.Activation, false
	}

	s.Phase = SwitchActivated
	s.Activation = &record

	return record, true
}
