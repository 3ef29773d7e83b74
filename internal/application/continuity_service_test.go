package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func registerAgent(t *testing.T, c *core, agentID domain.AgentID, role domain.RoleID) string {
	t.Helper()

	sessionID := string(agentID) + "-session"
	require.NoError(t, c.continuity.Register(context.Background(), agentID, role, sessionID))
	return sessionID
}

func answerChallenge(t *testing.T, c *core, agentID domain.AgentID, sessionID string) HeartbeatResult {
	t.Helper()
	ctx := context.Background()

	ticket, err := c.continuity.IssueChallenge(ctx, agentID, sessionID)
	require.NoError(t, err)

	response, err := c.continuity.ComputeResponse(ctx, agentID, sessionID, ticket.Seed)
	require.NoError(t, err)

	result, err := c.continuity.ValidateResponse(ctx, agentID, sessionID, response)
	require.NoError(t, err)
	return result
}

func failChallenge(t *testing.T, c *core, agentID domain.AgentID, sessionID string) HeartbeatResult {
	t.Helper()
	ctx := context.Background()

	_, err := c.continuity.IssueChallenge(ctx, agentID, sessionID)
	require.NoError(t, err)

	result, err := c.continuity.ValidateResponse(ctx, agentID, sessionID, "garbage-response")
	require.NoError(t, err)
	return result
}

func TestContinuityChallengeRequiresRegistration(t *testing.T) {
	c := newCore()

	_, err := c.continuity.IssueChallenge(context.Background(), "ghost", "any-session")
	require.ErrorIs(t, err, domain.ErrAgentNotRegistered)
}

func TestContinuityChallengeSessionMismatch(t *testing.T) {
	c := newCore()
	registerAgent(t, c, "agent-a", "citizen")

	_, err := c.continuity.IssueChallenge(context.Background(), "agent-a", "stolen-session")
	require.ErrorIs(t, err, domain.ErrSessionMismatch)
}

func TestContinuitySuccessfulHeartbeatResetsMisses(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "courier") // threshold 3

	result := failChallenge(t, c, "agent-a", sessionID)
	assert.Equal(t, 1, result.ConsecutiveMisses)
	assert.False(t, result.CompromiseTriggered)

	result = answerChallenge(t, c, "agent-a", sessionID)
	require.True(t, result.Success)

	record, err := c.continuity.records.Get(context.Background(), "agent-a")
	require.NoError(t, err)
	assert.Equal(t, 0, record.ConsecutiveMisses)
	assert.Equal(t, 1, record.TotalHeartbeats)
}

func TestContinuityMissThresholdBoundary(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "courier") // threshold 3

	for i := 1; i < 3; i++ {
		result := failChallenge(t, c, "agent-a", sessionID)
		assert.Equal(t, i, result.ConsecutiveMisses)
		assert.False(t, result.CompromiseTriggered, "miss %d must not trigger", i)
	}

	result := failChallenge(t, c, "agent-a", sessionID)
	assert.Equal(t, 3, result.ConsecutiveMisses)
	assert.True(t, result.CompromiseTriggered)
	assert.Equal(t, FailureWrongResponse, result.Reason)
}

func TestContinuityCitizenTwoMissesThenReportedCompromised(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "citizen") // interval 900s, threshold 2
	ctx := context.Background()

	first := failChallenge(t, c, "agent-a", sessionID)
	assert.Equal(t, 1, first.ConsecutiveMisses)
	assert.False(t, first.CompromiseTriggered)

	second := failChallenge(t, c, "agent-a", sessionID)
	assert.Equal(t, 2, second.ConsecutiveMisses)
	assert.True(t, second.CompromiseTriggered)

	// No further challenge can be issued, and validation reports the tripped
	// state with the frozen counter.
	_, err := c.continuity.IssueChallenge(ctx, "agent-a", sessionID)
	require.ErrorIs(t, err, domain.ErrAgentCompromised)

	third, err := c.continuity.ValidateResponse(ctx, "agent-a", sessionID, "anything")
	require.NoError(t, err)
	assert.True(t, third.CompromiseTriggered)
	assert.Equal(t, 2, third.ConsecutiveMisses)
	assert.Equal(t, FailureCompromised, third.Reason)
}

func TestContinuityExpiredChallengeCountsAsMiss(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "courier")
	ctx := context.Background()

	ticket, err := c.continuity.IssueChallenge(ctx, "agent-a", sessionID)
	require.NoError(t, err)

	response, err := c.continuity.ComputeResponse(ctx, "agent-a", sessionID, ticket.Seed)
	require.NoError(t, err)

	c.clock.Advance(challengeWindow + time.Second)

	result, err := c.continuity.ValidateResponse(ctx, "agent-a", sessionID, response)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, FailureChallengeExpired, result.Reason)
	assert.Equal(t, 1, result.ConsecutiveMisses)
}

func TestContinuityValidateWithoutChallenge(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "citizen")

	_, err := c.continuity.ValidateResponse(context.Background(), "agent-a", sessionID, "response")
	require.ErrorIs(t, err, domain.ErrNoChallenge)
}

func TestContinuityNewChallengeReplacesPrior(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "citizen")
	ctx := context.Background()

	stale, err := c.continuity.IssueChallenge(ctx, "agent-a", sessionID)
	require.NoError(t, err)
	fresh, err := c.continuity.IssueChallenge(ctx, "agent-a", sessionID)
	require.NoError(t, err)
	require.NotEqual(t, stale.Seed, fresh.Seed)

	staleResponse, err := c.continuity.ComputeResponse(ctx, "agent-a", sessionID, stale.Seed)
	require.NoError(t, err)

	result, err := c.continuity.ValidateResponse(ctx, "agent-a", sessionID, staleResponse)
	require.NoError(t, err)
	assert.Equal(t, FailureWrongResponse, result.Reason)
}

func TestContinuityDeadHeartbeatDetection(t *testing.T) {
	c := newCore()
	registerAgent(t, c, "agent-a", "citizen") // interval 900s
	ctx := context.Background()

	// Silence for just under 2x interval is still alive.
	dead, err := c.continuity.CheckDeadHeartbeats(ctx, c.clock.Now().Add(1800*time.Second))
	require.NoError(t, err)
	assert.Empty(t, dead)

	// Past 2x interval without a single challenge ever exchanged.
	dead, err = c.continuity.CheckDeadHeartbeats(ctx, c.clock.Now().Add(1801*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []domain.AgentID{"agent-a"}, dead)

	// Idempotent: an agent already flagged is skipped.
	dead, err = c.continuity.CheckDeadHeartbeats(ctx, c.clock.Now().Add(3600*time.Second))
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestContinuityDeregisterReturnsHeartbeatCount(t *testing.T) {
	c := newCore()
	sessionID := registerAgent(t, c, "agent-a", "citizen")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := answerChallenge(t, c, "agent-a", sessionID)
		require.True(t, result.Success)
	}

	count, err := c.continuity.Deregister(ctx, "agent-a")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = c.continuity.IssueChallenge(ctx, "agent-a", sessionID)
	require.ErrorIs(t, err, domain.ErrAgentNotRegistered)
}
