package application

import (
	"time"

	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/adapters/registry/static"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/adapters/store/memory"
)

// testClock is a settable clock so challenge windows, TTLs and dead-heartbeat
// sweeps can be driven deterministically.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// core bundles a fully wired in-memory stack for orchestration tests.
type core struct {
	clock       *testClock
	credentials *CredentialService
	continuity  *ContinuityService
	canaries    *CanaryService
	killswitch  *KillSwitchService
	protocol    *CompromiseService
	manager     *SessionManager
}

func newCore() *core {
	clock := newTestClock()
	registry := static.NewBuiltinRegistry()
	logger := zap.NewNop()

	credentials := NewCredentialService(registry, memory.NewSessionStore(), memory.NewAuditLog(), clock, logger)
	continuity := NewContinuityService(registry, memory.NewHeartbeatStore(), memory.NewSecretStore(), clock, logger)
	canaries := NewCanaryService(memory.NewCanaryStore(), clock, logger)
	killswitch := NewKillSwitchService(memory.NewKillSwitchStore(), clock, logger)
	protocol := NewCompromiseService(memory.NewIncidentStore(), registry, credentials, clock, logger)
	manager := NewSessionManager(registry, credentials, continuity, canaries, killswitch, protocol, clock, logger)

	return &core{
		clock:       clock,
		credentials: credentials,
		continuity:  continuity,
		canaries:    canaries,
		killswitch:  killswitch,
		protocol:    protocol,
		manager:     manager,
	}
}
