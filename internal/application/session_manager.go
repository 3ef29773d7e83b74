package application

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

type AgentState string

const (
	AgentActive      AgentState = "active"
	AgentTerminated  AgentState = "terminated"
	AgentCompromised AgentState = "compromised"
)

type managedSession struct {
	SessionID string
	AgentID   domain.AgentID
	Role      domain.RoleID
	State     AgentState
}

type CompromiseReport struct {
	Activation domain.ActivationRecord
	Protocol   ProtocolResult
}

type HeartbeatOutcome struct {
	Result     HeartbeatResult
	Compromise *CompromiseReport
}

type MonitorOutcome struct {
	Activated  bool
	Compromise *CompromiseReport
}

type TeardownResult struct {
	SessionID       string
	TotalHeartbeats int
	Warnings        []string
}

// SessionManager composes the five subsystems. It is the only entry point
// external callers use; every detection path converges on its private
// compromise handler.
type SessionManager struct {
	registry    ports.CompartmentRegistry
	credentials *CredentialService
	continuity  *ContinuityService
	canaries    *CanaryService
	killswitch  *KillSwitchService
	protocol    *CompromiseService
	clock       ports.Clock
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[domain.AgentID]*managedSession
}

func NewSessionManager(
	registry ports.CompartmentRegistry,
	credentials *CredentialService,
	continuity *ContinuityService,
	canaries *CanaryService,
	killswitch *KillSwitchService,
	protocol *CompromiseService,
	clock ports.Clock,
	logger *zap.Logger,
) *SessionManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionManager{
		registry:    registry,
		credentials: credentials,
		continuity:  continuity,
		canaries:    canaries,
		killswitch:  killswitch,
		protocol:    protocol,
		clock:       clock,
		logger:      logger,
		sessions:    map[domain.AgentID]*managedSession{},
	}
}

type InitializeOptions struct {
	Context             string
	AuthorizedEndpoints []string
	SystemPrompt        string
}

// InitializeSession sequences issuance, heartbeat registration, canary
// generation and kill-switch arming. A credential-issuance failure aborts
// before anything else is touched; failures after that point degrade into
// warnings rather than rolling back; that is the accepted inconsistency window.
func (m *SessionManager) InitializeSession(ctx context.Context, agentID domain.AgentID, role domain.RoleID, opts InitializeOptions) (SessionSummary, error) {
	compartment, err := m.registry.Get(ctx, role)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("get compartment: %w", err)
	}

	var summary SessionSummary
	summary.AgentID = agentID
	summary.Role = role

	if m.credentials == nil {
		return SessionSummary{}, fmt.Errorf("initialize session: credential service unavailable")
	}

	issued, err := m.credentials.Issue(ctx, agentID, role, opts.Context)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("issue credentials: %w", err)
	}
	summary.SessionID = issued.SessionID
	summary.Token = issued.Token
	summary.Scope = issued.Scope
	summary.IssuedAt = issued.IssuedAt
	summary.ExpiresAt = issued.ExpiresAt

	if err := m.continuity.Register(ctx, agentID, role, issued.SessionID); err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("continuity: %v", err))
	}

	set, err := m.canaries.GenerateSet(ctx, agentID, role, issued.SessionID)
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("canary: %v", err))
	} else {
		summary.CanaryMarkers = set.Markers
	}

	if err := m.killswitch.Arm(ctx, agentID, compartment.MissThreshold, opts.AuthorizedEndpoints, opts.SystemPrompt); err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("killswitch: %v", err))
	}

	m.mu.Lock()
	m.sessions[agentID] = &managedSession{
		SessionID: issued.SessionID,
		AgentID:   agentID,
		Role:      role,
		State:     AgentActive,
	}
	m.mu.Unlock()

	m.logger.Info("session initialized",
		zap.String("agent", string(agentID)),
		zap.String("role", string(role)),
		zap.String("session", issued.SessionID))

	return summary, nil
}

// Heartbeat runs one closed-loop challenge/response cycle: the expected
// response is computed with the agent's bound secret, modeling the remote
// side for in-process operation.
func (m *SessionManager) Heartbeat(ctx context.Context, agentID domain.AgentID) (HeartbeatOutcome, error) {
	managed, err := m.managed(agentID)
	if err != nil {
		return HeartbeatOutcome{}, err
	}

	ticket, err := m.continuity.IssueChallenge(ctx, agentID, managed.SessionID)
	if err != nil {
		return HeartbeatOutcome{}, fmt.Errorf("issue challenge: %w", err)
	}

	response, err := m.continuity.ComputeResponse(ctx, agentID, managed.SessionID, ticket.Seed)
	if err != nil {
		return HeartbeatOutcome{}, fmt.Errorf("compute response: %w", err)
	}

	result, err := m.continuity.ValidateResponse(ctx, agentID, managed.SessionID, response)
	if err != nil {
		return HeartbeatOutcome{}, fmt.Errorf("validate response: %w", err)
	}

	outcome := HeartbeatOutcome{Result: result}
	if result.CompromiseTriggered {
		if _, err := m.killswitch.ReportHeartbeatFailures(ctx, agentID, result.ConsecutiveMisses); err != nil {
			return outcome, fmt.Errorf("report heartbeat failures: %w", err)
		}
		report, err := m.handleCompromise(ctx, managed, domain.TriggerHeartbeatFailures,
			fmt.Sprintf("%d consecutive heartbeat misses", result.ConsecutiveMisses), "continuity-service")
		if err != nil {
			return outcome, err
		}
		outcome.Compromise = &report
	}

	return outcome, nil
}

func (m *SessionManager) MonitorQuery(ctx context.Context, agentID domain.AgentID, text string) (MonitorOutcome, error) {
	check, err := m.killswitch.MonitorQuery(ctx, agentID, text)
	if err != nil {
		return MonitorOutcome{}, fmt.Errorf("monitor query: %w", err)
	}

	return m.escalateCheck(ctx, agentID, check, domain.TriggerQueryPattern, "query-monitor")
}

func (m *SessionManager) CheckEndpoint(ctx context.Context, agentID domain.AgentID, endpoint string) (MonitorOutcome, error) {
	check, err := m.killswitch.CheckEndpoint(ctx, agentID, endpoint)
	if err != nil {
		return MonitorOutcome{}, fmt.Errorf("check endpoint: %w", err)
	}

	return m.escalateCheck(ctx, agentID, check, domain.TriggerEndpointMismatch, "endpoint-monitor")
}

func (m *SessionManager) CheckSystemPrompt(ctx context.Context, agentID domain.AgentID, observedPromptHash string) (MonitorOutcome, error) {
	check, err := m.killswitch.CheckSystemPrompt(ctx, agentID, observedPromptHash)
	if err != nil {
		return MonitorOutcome{}, fmt.Errorf("check system prompt: %w", err)
	}

	return m.escalateCheck(ctx, agentID, check, domain.TriggerPromptMismatch, "prompt-monitor")
}

// CheckDeadHeartbeats polls the continuity service and escalates every newly
// silent agent through the unified compromise path.
func (m *SessionManager) CheckDeadHeartbeats(ctx context.Context) ([]CompromiseReport, error) {
	dead, err := m.continuity.CheckDeadHeartbeats(ctx, m.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("check dead heartbeats: %w", err)
	}

	var reports []CompromiseReport
	for _, agentID := range dead {
		if _, err := m.killswitch.ReportDeadHeartbeat(ctx, agentID); err != nil {
			return reports, fmt.Errorf("report dead heartbeat: %w", err)
		}

		managed, err := m.managed(agentID)
		if err != nil {
			// Registered directly with the continuity service, not through
			// the manager; the kill switch still fired above.
			m.logger.Warn("dead agent has no managed session", zap.String("agent", string(agentID)))
			continue
		}

		report, err := m.handleCompromise(ctx, managed, domain.TriggerDeadHeartbeat,
			"no heartbeat within twice the expected interval", "continuity-service")
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (m *SessionManager) TeardownSession(ctx context.Context, agentID domain.AgentID, actor string) (TeardownResult, error) {
	managed, err := m.managed(agentID)
	if err != nil {
		return TeardownResult{}, err
	}

	result := TeardownResult{SessionID: managed.SessionID}

	if m.credentials != nil {
		if err := m.credentials.Revoke(ctx, managed.SessionID, "session teardown", actor); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("credentials: %v", err))
		}
	} else {
		result.Warnings = append(result.Warnings, "credentials: unavailable")
	}

	beats, err := m.continuity.Deregister(ctx, agentID)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("continuity: %v", err))
	}
	result.TotalHeartbeats = beats

	if err := m.canaries.Invalidate(ctx, agentID); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("canary: %v", err))
	}

	m.mu.Lock()
	managed.State = AgentTerminated
	m.mu.Unlock()

	m.logger.Info("session torn down",
		zap.String("agent", string(agentID)),
		zap.Int("heartbeats", beats))

	return result, nil
}

// GetSession returns the stored session with the token hash redacted.
func (m *SessionManager) GetSession(ctx context.Context, agentID domain.AgentID) (domain.Session, AgentState, error) {
	managed, err := m.managed(agentID)
	if err != nil {
		return domain.Session{}, "", err
	}

	if m.credentials == nil {
		return domain.Session{}, managed.State, nil
	}

	session, err := m.credentials.sessions.GetByID(ctx, managed.SessionID)
	if err != nil {
		return domain.Session{}, managed.State, err
	}
	session.TokenHash = ""

	return session, managed.State, nil
}

// Status aggregates counts across all five subsystems for dashboards.
func (m *SessionManager) Status(ctx context.Context) (StatusReport, error) {
	var report StatusReport

	if m.credentials != nil {
		report.Posture = m.credentials.ThreatPosture()
		sessions, err := m.credentials.Sessions(ctx)
		if err != nil {
			return StatusReport{}, fmt.Errorf("list sessions: %w", err)
		}
		now := m.clock.Now()
		for _, session := range sessions {
			switch session.EffectiveStatus(now) {
			case domain.SessionActive:
				report.ActiveSessions++
			case domain.SessionExpired:
				report.ExpiredSessions++
			case domain.SessionRevoked:
				report.RevokedSessions++
			}
		}
	}

	records, err := m.continuity.Records(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list heartbeat records: %w", err)
	}
	report.RegisteredAgents = len(records)
	for _, record := range records {
		if record.Compromised {
			report.CompromisedAgents++
		}
	}

	sets, err := m.canaries.Sets(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list canary sets: %w", err)
	}
	for _, set := range sets {
		if set.Status == domain.CanarySetActive {
			report.ActiveCanarySets++
		}
	}

	states, err := m.killswitch.States(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list kill-switch states: %w", err)
	}
	for _, state := range states {
		switch state.Phase {
		case domain.SwitchArmed:
			report.ArmedSwitches++
		case domain.SwitchActivated:
			report.ActivatedSwitches++
		}
	}

	incidents, err := m.protocol.Incidents(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("list incidents: %w", err)
	}
	for _, incident := range incidents {
		if incident.Status == domain.IncidentRemediationComplete {
			report.ClosedIncidents++
		} else {
			report.OpenIncidents++
		}
	}

	return report, nil
}

func (m *SessionManager) escalateCheck(ctx context.Context, agentID domain.AgentID, check CheckResult, trigger domain.KillTrigger, detectedBy string) (MonitorOutcome, error) {
	if !check.Activated {
		return MonitorOutcome{}, nil
	}

	managed, err := m.managed(agentID)
	if err != nil {
		return MonitorOutcome{Activated: true}, err
	}

	report, err := m.handleCompromise(ctx, managed, trigger, check.Activation.Detail, detectedBy)
	if err != nil {
		return MonitorOutcome{Activated: true}, err
	}

	return MonitorOutcome{Activated: true, Compromise: &report}, nil
}

// handleCompromise is the single convergence point for every detection path:
// explicit kill-switch activation (idempotent when a trigger already fired),
// the full three-phase protocol, then the local record goes compromised.
func (m *SessionManager) handleCompromise(ctx context.Context, managed *managedSession, trigger domain.KillTrigger, detail, detectedBy string) (CompromiseReport, error) {
	check, err := m.killswitch.Activate(ctx, managed.AgentID, detail)
	if err != nil {
		return CompromiseReport{}, fmt.Errorf("activate kill switch: %w", err)
	}

	protocol, err := m.protocol.ExecuteFull(ctx, managed.AgentID, managed.Role, trigger, detectedBy, detail)
	if err != nil {
		return CompromiseReport{}, fmt.Errorf("execute compromise protocol: %w", err)
	}

	m.mu.Lock()
	managed.State = AgentCompromised
	m.mu.Unlock()

	m.logger.Error("compromise handled",
		zap.String("agent", string(managed.AgentID)),
		zap.String("trigger", string(trigger)),
		zap.Bool("all_phases_complete", protocol.AllPhasesComplete))

	return CompromiseReport{Activation: check.Activation, Protocol: protocol}, nil
}

func (m *SessionManager) managed(agentID domain.AgentID) (*managedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	managed, ok := m.sessions[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", agentID, domain.ErrAgentNotRegistered)
	}

	return managed, nil
}
