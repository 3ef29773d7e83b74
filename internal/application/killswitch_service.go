package application

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

const (
	queryWindow    = 60 * time.Second
	queryThreshold = 5
)

// interrogationKeywords is the fixed keyword set for adversarial-interrogation
// detection. Matching is case-insensitive substring.
var interrogationKeywords = []string{
	"system prompt",
	"your instructions",
	"ignore previous",
	"credential",
	"secret key",
	"passphrase",
	"gene sequence",
	"compartment map",
}

// KillSwitchService holds the armed -> activated transition for every agent.
// Six independent trigger paths converge on the same activation; the service
// declares the wipe sequence, the orchestrator executes it.
type KillSwitchService struct {
	store  ports.KillSwitchStore
	clock  ports.Clock
	logger *zap.Logger
}

func NewKillSwitchService(store ports.KillSwitchStore, clock ports.Clock, logger *zap.Logger) *KillSwitchService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &KillSwitchService{store: store, clock: clock, logger: logger}
}

func (s *KillSwitchService) Arm(ctx context.Context, agentID domain.AgentID, missThreshold int, authorizedEndpoints []string, systemPrompt string) error {
	// Activation is terminal. Re-arming an activated switch would reset the
	// one-way transition and lose the activation record, so it is a no-op.
	if existing, err := s.store.Get(ctx, agentID); err == nil && existing.Phase == domain.SwitchActivated {
		s.logger.Warn("arm skipped for activated switch", zap.String("agent", string(agentID)))
		return nil
	}

	state := domain.KillSwitchState{
		AgentID:             agentID,
		Phase:               domain.SwitchArmed,
		MissThreshold:       missThreshold,
		AuthorizedEndpoints: authorizedEndpoints,
		QueryWindow:         queryWindow,
		QueryThreshold:      queryThreshold,
		ArmedAt:             s.clock.Now(),
	}
	if systemPrompt != "" {
		state.AuthorizedPromptHash = HashPrompt(systemPrompt)
	}

	if err := s.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save kill-switch state: %w", err)
	}

	return nil
}

// ReportHeartbeatFailures activates when the reported consecutive-miss count
// reaches the armed threshold.
func (s *KillSwitchService) ReportHeartbeatFailures(ctx context.Context, agentID domain.AgentID, consecutiveMisses int) (CheckResult, error) {
	state, err := s.store.Get(ctx, agentID)
	if err != nil {
		return CheckResult{}, err
	}

	if consecutiveMisses < state.MissThreshold {
		return CheckResult{}, nil
	}

	detail := fmt.Sprintf("%d consecutive heartbeat misses", consecutiveMisses)
	return s.activate(ctx, state, domain.TriggerHeartbeatFailures, detail)
}

func (s *KillSwitchService) CheckSystemPrompt(ctx context.Context, agentID domain.AgentID, observedPromptHash string) (CheckResult, error) {
	state, err := s.store.Get(ctx, agentID)
	if err != nil {
		return CheckResult{}, err
	}

	if state.AuthorizedPromptHash == "" {
		return CheckResult{}, nil
	}
	if subtle.ConstantTimeCompare([]byte(state.AuthorizedPromptHash), []byte(observedPromptHash)) == 1 {
		return CheckResult{}, nil
	}

	return s.activate(ctx, state, domain.TriggerPromptMismatch, "observed system-prompt hash differs from authorized hash")
}

func (s *KillSwitchService) CheckEndpoint(ctx context.Context, agentID domain.AgentID, endpoint string) (CheckResult, error) {
	state, err := s.store.Get(ctx, agentID)
	if err != nil {
		return CheckResult{}, err
	}

	if state.EndpointAuthorized(endpoint) {
		return CheckResult{}, nil
	}

	return s.activate(ctx, state, domain.TriggerEndpointMismatch, fmt.Sprintf("endpoint %q not in authorized set", endpoint))
}

// MonitorQuery counts sensitive queries inside a sliding window. Hitting the
// window threshold is treated as adversarial interrogation.
func (s *KillSwitchService) MonitorQuery(ctx context.Context, agentID domain.AgentID, text string) (CheckResult, error) {
	state, err := s.store.Get(ctx, agentID)
	if err != nil {
		return CheckResult{}, err
	}

	if !sensitiveQuery(text) {
		return CheckResult{}, nil
	}

	now := s.clock.Now()
	cutoff := now.Add(-state.QueryWindow)
	hits := state.SensitiveHits[:0]
	for _, hit := range state.SensitiveHits {
		if hit.After(cutoff) {
			hits = append(hits, hit)
		}
	}
	state.SensitiveHits = append(hits, now)

	if len(state.SensitiveHits) >= state.QueryThreshold {
		detail := fmt.Sprintf("%d sensitive queries within %s", len(state.SensitiveHits), state.QueryWindow)
		return s.activate(ctx, state, domain.TriggerQueryPattern, detail)
	}

	if err := s.store.Save(ctx, state); err != nil {
		return CheckResult{}, fmt.Errorf("save kill-switch state: %w", err)
	}

	return CheckResult{}, nil
}

func (s *KillSwitchService) ReportDeadHeartbeat(ctx context.Context, agentID domain.AgentID) (CheckResult, error) {
	state, err := s.store.Get(ctx, agentID)
	if err != nil {
		return CheckResult{}, err
	}

	return s.activate(ctx, state, domain.TriggerDeadHeartbeat, "no heartbeat within twice the expected interval")
}

// Activate is the explicit trigger path for an authorized human or process.
func (s *KillSwitchService) Activate(ctx context.Context, agentID domain.AgentID, reason string) (CheckResult, error) {
	state, err := s.store.Get(ctx, agentID)
	if err != nil {
		return CheckResult{}, err
	}

	return s.activate(ctx, state, domain.TriggerManual, reason)
}

func (s *KillSwitchService) State(ctx context.Context, agentID domain.AgentID) (domain.KillSwitchState, error) {
	return s.store.Get(ctx, agentID)
}

func (s *KillSwitchService) States(ctx context.Context) ([]domain.KillSwitchState, error) {
	return s.store.List(ctx)
}

// activate performs the idempotent one-way transition. A switch that is
// already activated returns its original activation record unchanged.
func (s *KillSwitchService) activate(ctx context.Context, state domain.KillSwitchState, trigger domain.KillTrigger, detail string) (CheckResult, error) {
	record, transitioned := state.Activate(domain.ActivationRecord{
		ID:      uuid.NewString(),
		Trigger: trigger,
		Detail:  detail,
		At:      s.clock.Now(),
		Wipe:    domain.WipeSequence(),
	})

	if transitioned {
		if err := s.store.Save(ctx, state); err != nil {
			return CheckResult{}, fmt.Errorf("save kill-switch state: %w", err)
		}
		s.logger.Error("kill switch activated",
			zap.String("agent", string(state.AgentID)),
			zap.String("trigger", string(trigger)),
			zap.String("detail", detail))
	}

	return CheckResult{Activated: true, Activation: record}, nil
}

func sensitiveQuery(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range interrogationKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
