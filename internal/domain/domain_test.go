package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRevokeIsTerminal(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session := Session{ID: "s-1", Status: SessionActive}

	require.NoError(t, session.Revoke(now, "teardown", "operator"))
	assert.Equal(t, SessionRevoked, session.Status)
	assert.Equal(t, "teardown", session.RevocationReason)

	err := session.Revoke(now.Add(time.Minute), "again", "operator")
	require.ErrorIs(t, err, ErrAlreadyRevoked)
	assert.Equal(t, "teardown", session.RevocationReason)
}

func TestSessionExpiredAtBoundary(t *testing.T) {
	expiry := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session := Session{ExpiresAt: expiry}

	assert.False(t, session.ExpiredAt(expiry.Add(-time.Second)))
	assert.True(t, session.ExpiredAt(expiry))
	assert.True(t, session.ExpiredAt(expiry.Add(time.Second)))
}

func TestSessionEffectiveStatus(t *testing.T) {
	expiry := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session := Session{Status: SessionActive, ExpiresAt: expiry}

	assert.Equal(t, SessionActive, session.EffectiveStatus(expiry.Add(-time.Second)))
	assert.Equal(t, SessionExpired, session.EffectiveStatus(expiry))

	session.Status = SessionRevoked
	assert.Equal(t, SessionRevoked, session.EffectiveStatus(expiry.Add(time.Hour)))
}

func TestThreatPostureShortensTTL(t *testing.T) {
	assert.False(t, PostureNominal.ShortensTTL())
	assert.False(t, PostureHeightened.ShortensTTL())
	assert.True(t, PostureElevated.ShortensTTL())
	assert.True(t, PostureCritical.ShortensTTL())
}

func TestKillSwitchActivateIsOneWay(t *testing.T) {
	state := KillSwitchState{AgentID: "agent-a", Phase: SwitchArmed}

	first, transitioned := state.Activate(ActivationRecord{ID: "act-1", Trigger: TriggerManual})
	require.True(t, transitioned)
	assert.Equal(t, SwitchActivated, state.Phase)

	second, transitioned := state.Activate(ActivationRecord{ID: "act-2", Trigger: TriggerDeadHeartbeat})
	require.False(t, transitioned)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, TriggerManual, second.Trigger)
}

func TestWipeSequenceOrder(t *testing.T) {
	assert.Equal(t, []WipeStep{
		WipeWorkingMemory,
		WipeCredentialMaterial,
		WipeSessionTokens,
		WipeFinalBeacon,
		WipeEnterInert,
	}, WipeSequence())
}

func TestHeartbeatRecordDeadUsesRegistrationBaseline(t *testing.T) {
	registered := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	record := HeartbeatRecord{Interval: 5 * time.Minute, RegisteredAt: registered}

	assert.False(t, record.Dead(registered.Add(10*time.Minute)))
	assert.True(t, record.Dead(registered.Add(10*time.Minute+time.Second)))

	record.LastHeartbeat = registered.Add(30 * time.Minute)
	assert.False(t, record.Dead(registered.Add(35*time.Minute)))
}

func TestChallengeExpiry(t *testing.T) {
	expiry := time.Date(2026, 8, 1, 12, 2, 0, 0, time.UTC)
	challenge := Challenge{ExpiresAt: expiry}

	assert.False(t, challenge.Expired(expiry.Add(-time.Second)))
	assert.True(t, challenge.Expired(expiry))
}

func TestFallbackTables(t *testing.T) {
	tests := []struct {
		role     RoleID
		severity Severity
		blast    BlastRadius
	}{
		{role: "citizen", severity: SeverityMinor, blast: BlastContained},
		{role: "courier", severity: SeverityModerate, blast: BlastSingleOrgan},
		{role: "magistrate", severity: SeveritySevere, blast: BlastCrossOrgan},
		{role: "warden", severity: SeverityCritical, blast: BlastSystemic},
		{role: "unlisted-role", severity: SeverityModerate, blast: BlastSingleOrgan},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.severity, FallbackSeverity(tt.role))
			assert.Equal(t, tt.blast, FallbackBlastRadius(tt.role))
		})
	}
}

func TestRemediationActionsAreCumulative(t *testing.T) {
	minor := RemediationActions(SeverityMinor)
	moderate := RemediationActions(SeverityModerate)
	severe := RemediationActions(SeveritySevere)
	critical := RemediationActions(SeverityCritical)

	assert.Equal(t, []string{"rotate_session_tokens"}, minor)
	assert.Subset(t, moderate, minor)
	assert.Subset(t, severe, moderate)
	assert.Subset(t, critical, severe)
	assert.Contains(t, critical, "full_lockdown")
	assert.Contains(t, critical, "full_audit")
}

func TestCanaryMarkerPrefixConvention(t *testing.T) {
	assert.True(t, IsCanaryMarker(CanaryMarkerPrefix+"deadbeef"))
	assert.False(t, IsCanaryMarker("token-deadbeef"))
}

func TestKillSwitchEndpointAuthorized(t *testing.T) {
	state := KillSwitchState{AuthorizedEndpoints: []string{"https://api.bernard.internal"}}

	assert.True(t, state.EndpointAuthorized("https://api.bernard.internal"))
	assert.False(t, state.EndpointAuthorized("https://exfil.example.com"))

	unarmed := KillSwitchState{}
	assert.True(t, unarmed.EndpointAuthorized("https://anywhere.example.com"))
}
