package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

// CompromiseService runs the three-phase incident response: isolate, assess,
// remediate. Phases are strictly ordered; calling one before its predecessor
// completes fails with ErrPhaseNotReady. The credential service is an
// optional collaborator; isolation still completes without it, recording
// "unavailable" instead of failing the phase.
type CompromiseService struct {
	incidents   ports.IncidentStore
	registry    ports.CompartmentRegistry
	credentials *CredentialService
	clock       ports.Clock
	logger      *zap.Logger
}

func NewCompromiseService(incidents ports.IncidentStore, registry ports.CompartmentRegistry, credentials *CredentialService, clock ports.Clock, logger *zap.Logger) *CompromiseService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CompromiseService{
		incidents:   incidents,
		registry:    registry,
		credentials: credentials,
		clock:       clock,
		logger:      logger,
	}
}

func (s *CompromiseService) Open(ctx context.Context, agentID domain.AgentID, role domain.RoleID, trigger domain.KillTrigger, detectedBy, detail string) (domain.Incident, error) {
	incident := domain.Incident{
		ID:         uuid.NewString(),
		AgentID:    agentID,
		Role:       role,
		Trigger:    trigger,
		DetectedBy: detectedBy,
		Detail:     detail,
		Status:     domain.IncidentOpen,
		OpenedAt:   s.clock.Now(),
	}

	if err := s.incidents.Save(ctx, incident); err != nil {
		return domain.Incident{}, fmt.Errorf("save incident: %w", err)
	}

	s.logger.Warn("incident opened",
		zap.String("incident", incident.ID),
		zap.String("agent", string(agentID)),
		zap.String("trigger", string(trigger)))

	return incident, nil
}

// Isolate is phase 1: cut the agent off by revoking every session and flag
// contact rotation for agents that shared operational context.
func (s *CompromiseService) Isolate(ctx context.Context, incidentID string) (domain.Incident, error) {
	incident, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return domain.Incident{}, err
	}
	if incident.Isolation != nil {
		return incident, nil
	}

	isolation := domain.IsolationRecord{
		CredentialService: "unavailable",
		CompletedAt:       s.clock.Now(),
	}

	if s.credentials != nil {
		revoked, err := s.credentials.RevokeAll(ctx, incident.AgentID, "compromise isolation", "compromise-protocol")
		if err != nil {
			return domain.Incident{}, fmt.Errorf("revoke sessions during isolation: %w", err)
		}
		flagged, err := s.credentials.RotateContacts(ctx, incident.AgentID)
		if err != nil {
			return domain.Incident{}, fmt.Errorf("flag contact rotation: %w", err)
		}
		isolation.SessionsRevoked = revoked
		isolation.RotationFlagged = flagged
		isolation.CredentialService = "ok"
	}

	incident.Isolation = &isolation
	incident.Status = domain.IncidentPhase1Complete

	if err := s.incidents.Save(ctx, incident); err != nil {
		return domain.Incident{}, fmt.Errorf("save incident: %w", err)
	}

	return incident, nil
}

// Assess is phase 2 and requires a completed isolation record. With no richer
// damage model wired in, severity and blast radius come from the static
// role fallback tables.
func (s *CompromiseService) Assess(ctx context.Context, incidentID string) (domain.Incident, error) {
	incident, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return domain.Incident{}, err
	}
	if incident.Isolation == nil {
		return domain.Incident{}, fmt.Errorf("assess incident %s: %w", incidentID, domain.ErrPhaseNotReady)
	}
	if incident.Assessment != nil {
		return incident, nil
	}

	assessment := domain.AssessmentRecord{
		BlastRadius: domain.FallbackBlastRadius(incident.Role),
		Severity:    domain.FallbackSeverity(incident.Role),
		CompletedAt: s.clock.Now(),
	}

	if s.registry != nil {
		if compartment, err := s.registry.Get(ctx, incident.Role); err == nil {
			assessment.CredentialsExposed = compartment.CredentialScope
			assessment.KnowledgeExposed = compartment.KnowledgeBoundary
		}
	}

	incident.Assessment = &assessment
	incident.Severity = assessment.Severity
	incident.Status = domain.IncidentPhase2Complete

	if err := s.incidents.Save(ctx, incident); err != nil {
		return domain.Incident{}, fmt.Errorf("save incident: %w", err)
	}

	return incident, nil
}

// Remediate is phase 3 and requires a completed assessment. The action list
// scales with severity; the agent's standing is frozen pending investigation
// and a post-incident report is required.
func (s *CompromiseService) Remediate(ctx context.Context, incidentID string) (domain.Incident, error) {
	incident, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return domain.Incident{}, err
	}
	if incident.Assessment == nil {
		return domain.Incident{}, fmt.Errorf("remediate incident %s: %w", incidentID, domain.ErrPhaseNotReady)
	}
	if incident.Remediation != nil {
		return incident, nil
	}

	now := s.clock.Now()
	incident.Remediation = &domain.RemediationRecord{
		Actions:        domain.RemediationActions(incident.Severity),
		StandingFrozen: true,
		ReportRequired: true,
		CompletedAt:    now,
	}
	incident.Status = domain.IncidentRemediationComplete
	incident.ClosedAt = now

	if err := s.incidents.Save(ctx, incident); err != nil {
		return domain.Incident{}, fmt.Errorf("save incident: %w", err)
	}

	s.logger.Info("incident remediated",
		zap.String("incident", incident.ID),
		zap.String("severity", string(incident.Severity)))

	return incident, nil
}

// ExecuteFull runs phases 1 through 3 in order, short-circuiting with the
// failed phase number when a precondition check rejects the sequence.
func (s *CompromiseService) ExecuteFull(ctx context.Context, agentID domain.AgentID, role domain.RoleID, trigger domain.KillTrigger, detectedBy, detail string) (ProtocolResult, error) {
	incident, err := s.Open(ctx, agentID, role, trigger, detectedBy, detail)
	if err != nil {
		return ProtocolResult{}, err
	}

	phases := []struct {
		n   int
		run func(context.Context, string) (domain.Incident, error)
	}{
		{1, s.Isolate},
		{2, s.Assess},
		{3, s.Remediate},
	}

	incidentID := incident.ID
	for _, phase := range phases {
		next, err := phase.run(ctx, incidentID)
		if err != nil {
			// Report the partial incident as it stands in the store.
			if stored, getErr := s.incidents.Get(ctx, incidentID); getErr == nil {
				incident = stored
			}
			return ProtocolResult{
				Incident:    incident,
				FailedPhase: phase.n,
				PhaseError:  err.Error(),
			}, nil
		}
		incident = next
	}

	return ProtocolResult{Incident: incident, AllPhasesComplete: true}, nil
}

func (s *CompromiseService) Incidents(ctx context.Context) ([]domain.Incident, error) {
	return s.incidents.List(ctx)
}
