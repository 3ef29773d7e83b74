package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionInitRequiresAgentAndRoleFlags(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
}

func TestSessionInitUnknownRole(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "init", "--agent", "agent-a", "--role", "smuggler")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestSessionInitPrintsTokenAndCanaries(t *testing.T) {
	home := t.TempDir()

	stdout, stderr, err := executeCLI(t, home, "session", "init",
		"--agent", "agent-a",
		"--role", "courier",
		"--context", "dispatch run",
		"--endpoint", "https://api.bernard.internal",
		"--system-prompt", "You are a courier of House Bernard.",
	)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "session: ")
	assert.Contains(t, stdout, "token: ")
	assert.Equal(t, 5, strings.Count(stdout, "canary: cnry-"))
}

func TestSessionListSurvivesRestart(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "init", "--agent", "agent-a", "--role", "citizen")
	require.NoError(t, err)

	// Fresh command tree, same state directory: the session file persists.
	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "agent-a")
	assert.Contains(t, stdout, "citizen")
	assert.Contains(t, stdout, "active")
}

func TestSessionListNeverPrintsTokens(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "session", "init", "--agent", "agent-a", "--role", "citizen")
	require.NoError(t, err)

	var token string
	for _, line := range strings.Split(stdout, "\n") {
		if rest, ok := strings.CutPrefix(line, "token: "); ok {
			token = rest
		}
	}
	require.NotEmpty(t, token)

	listOut, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.NotContains(t, listOut, token)
}

func TestHeartbeatUnknownAgent(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "heartbeat", "--agent", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent not registered")
}

func TestCanaryDetectUnknownMarker(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "canary", "detect", "cnry-deadbeef", "--observed-by", "agent-b")
	require.NoError(t, err)
	assert.Contains(t, stdout, "marker unknown")
}

func TestCanaryScanIgnoresNonCanaryCandidates(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "canary", "scan", "--agent", "agent-a", "api-key-123", "cnry-unmapped")
	require.NoError(t, err)
	assert.Equal(t, "clean", strings.TrimSpace(stdout))
}

func TestPostureSetRejectsUnknownPosture(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "posture", "set", "apocalyptic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown threat posture")
}

func TestPostureShowDefaultsToNominal(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "posture", "show")
	require.NoError(t, err)
	assert.Equal(t, "nominal", strings.TrimSpace(stdout))
}

func TestStatusPlainOutput(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "init", "--agent", "agent-a", "--role", "citizen")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "posture: nominal")
	assert.Contains(t, stdout, "sessions: 1 active, 0 expired, 0 revoked")
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"ActiveSessions\"")
}

func TestVersionCommand(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev", strings.TrimSpace(stdout))
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
