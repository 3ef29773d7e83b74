package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

const markersPerSet = 5

// CanaryService plants disposable decoy markers in each agent's credential
// bundle. Markers have no operational purpose: observing one under any other
// agent identity is conclusive proof the owner's bundle leaked.
type CanaryService struct {
	store  ports.CanaryStore
	clock  ports.Clock
	logger *zap.Logger
}

func NewCanaryService(store ports.CanaryStore, clock ports.Clock, logger *zap.Logger) *CanaryService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CanaryService{store: store, clock: clock, logger: logger}
}

// GenerateSet invalidates any prior set for the agent first: exactly one
// active owning set per agent at a time. Old markers remain recognizable as
// canaries but no longer map to anyone.
func (s *CanaryService) GenerateSet(ctx context.Context, agentID domain.AgentID, role domain.RoleID, sessionID string) (domain.CanarySet, error) {
	if err := s.invalidatePrior(ctx, agentID); err != nil {
		return domain.CanarySet{}, err
	}

	markers := make([]string, 0, markersPerSet)
	for i := 0; i < markersPerSet; i++ {
		suffix, err := randomHex(16)
		if err != nil {
			return domain.CanarySet{}, fmt.Errorf("generate marker: %w", err)
		}
		markers = append(markers, domain.CanaryMarkerPrefix+suffix)
	}

	set := domain.CanarySet{
		AgentID:     agentID,
		Role:        role,
		SessionID:   sessionID,
		Markers:     markers,
		GeneratedAt: s.clock.Now(),
		Status:      domain.CanarySetActive,
	}

	for _, marker := range markers {
		if err := s.store.PutOwner(ctx, marker, agentID); err != nil {
			return domain.CanarySet{}, fmt.Errorf("map marker owner: %w", err)
		}
	}

	if err := s.store.SaveSet(ctx, set); err != nil {
		return domain.CanarySet{}, fmt.Errorf("save canary set: %w", err)
	}

	return set, nil
}

// Detect reports whether a marker observed under observedAgentID implicates
// its owner. Cross-agent reuse flags the owner's set compromised as a side
// effect.
func (s *CanaryService) Detect(ctx context.Context, marker string, observedAgentID domain.AgentID, observedContext string) (DetectResult, error) {
	owner, err := s.store.Owner(ctx, marker)
	if err != nil {
		if errors.Is(err, domain.ErrMarkerNotOwned) {
			return DetectResult{Outcome: DetectNotFound}, nil
		}
		return DetectResult{}, fmt.Errorf("lookup marker owner: %w", err)
	}

	if owner == observedAgentID {
		return DetectResult{Outcome: DetectLegitimate}, nil
	}

	set, err := s.store.GetSet(ctx, owner)
	if err != nil {
		return DetectResult{}, fmt.Errorf("get owner canary set: %w", err)
	}
	set.Status = domain.CanarySetCompromised
	if err := s.store.SaveSet(ctx, set); err != nil {
		return DetectResult{}, fmt.Errorf("flag canary set compromised: %w", err)
	}

	detectionID := uuid.NewString()
	s.logger.Warn("canary reuse detected",
		zap.String("marker_owner", string(owner)),
		zap.String("observed_agent", string(observedAgentID)),
		zap.String("context", observedContext),
		zap.String("detection", detectionID))

	return DetectResult{
		Outcome:       DetectCompromiseConfirmed,
		OriginalOwner: owner,
		DetectionID:   detectionID,
		RecommendedActions: []string{
			"activate_kill_switch",
			"revoke_all_sessions",
			"rotate_shared_contacts",
		},
	}, nil
}

// ScanBundle filters candidates by the marker prefix convention and reports
// any canary not owned by the presenting agent.
func (s *CanaryService) ScanBundle(ctx context.Context, agentID domain.AgentID, candidates []string) (BundleScan, error) {
	var foreign []string
	for _, candidate := range candidates {
		if !domain.IsCanaryMarker(candidate) {
			continue
		}

		owner, err := s.store.Owner(ctx, candidate)
		if err != nil {
			if errors.Is(err, domain.ErrMarkerNotOwned) {
				continue
			}
			return BundleScan{}, fmt.Errorf("lookup marker owner: %w", err)
		}

		if owner != agentID {
			foreign = append(foreign, candidate)
		}
	}

	return BundleScan{ForeignCanaries: foreign, Clean: len(foreign) == 0}, nil
}

// RefreshAll regenerates every still-active set; each refresh goes through
// GenerateSet and therefore invalidates the previous set.
func (s *CanaryService) RefreshAll(ctx context.Context) (int, error) {
	sets, err := s.store.ListSets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list canary sets: %w", err)
	}

	refreshed := 0
	for _, set := range sets {
		if set.Status != domain.CanarySetActive {
			continue
		}
		if _, err := s.GenerateSet(ctx, set.AgentID, set.Role, set.SessionID); err != nil {
			return refreshed, err
		}
		refreshed++
	}

	return refreshed, nil
}

// Invalidate removes the agent's marker ownership without issuing a new set,
// used at session teardown.
func (s *CanaryService) Invalidate(ctx context.Context, agentID domain.AgentID) error {
	return s.invalidatePrior(ctx, agentID)
}

func (s *CanaryService) Sets(ctx context.Context) ([]domain.CanarySet, error) {
	return s.store.ListSets(ctx)
}

func (s *CanaryService) invalidatePrior(ctx context.Context, agentID domain.AgentID) error {
	prior, err := s.store.GetSet(ctx, agentID)
	if err != nil {
		if errors.Is(err, domain.ErrCanarySetNotFound) {
			return nil
		}
		return fmt.Errorf("get prior canary set: %w", err)
	}

	for _, marker := range prior.Markers {
		if err := s.store.DeleteOwner(ctx, marker); err != nil {
			return fmt.Errorf("unmap marker: %w", err)
		}
	}

	if prior.Status == domain.CanarySetActive {
		prior.Status = domain.CanarySetSuperseded
		if err := s.store.SaveSet(ctx, prior); err != nil {
			return fmt.Errorf("supersede canary set: %w", err)
		}
	}

	return nil
}
