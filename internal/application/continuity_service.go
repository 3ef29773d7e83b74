package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/ports"
)

const (
	challengeWindow = 120 * time.Second
	secretBytes     = 32
	seedBytes       = 32
)

// ContinuityService runs the per-agent challenge/response heartbeat. Two
// independent failure signals feed escalation: the consecutive-miss counter
// (adversary answers challenges but cannot compute responses) and the
// elapsed-silence detector (adversary severs the channel entirely).
type ContinuityService struct {
	registry ports.CompartmentRegistry
	records  ports.HeartbeatStore
	secrets  ports.SecretStore
	clock    ports.Clock
	logger   *zap.Logger

	mu         sync.Mutex
	challenges map[domain.AgentID]domain.Challenge
}

func NewContinuityService(registry ports.CompartmentRegistry, records ports.HeartbeatStore, secrets ports.SecretStore, clock ports.Clock, logger *zap.Logger) *ContinuityService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ContinuityService{
		registry:   registry,
		records:    records,
		secrets:    secrets,
		clock:      clock,
		logger:     logger,
		challenges: map[domain.AgentID]domain.Challenge{},
	}
}

// Register binds an agent to its compartment's heartbeat parameters and
// provisions the per-session shared secret. The secret is only ever used for
// response verification; it is never returned to the caller.
func (s *ContinuityService) Register(ctx context.Context, agentID domain.AgentID, role domain.RoleID, sessionID string) error {
	compartment, err := s.registry.Get(ctx, role)
	if err != nil {
		return fmt.Errorf("get compartment: %w", err)
	}

	secret, err := randomHex(secretBytes)
	if err != nil {
		return fmt.Errorf("generate heartbeat secret: %w", err)
	}

	if err := s.secrets.Put(ctx, secretKey(agentID), secret); err != nil {
		return fmt.Errorf("store heartbeat secret: %w", err)
	}

	record := domain.HeartbeatRecord{
		AgentID:       agentID,
		Role:          role,
		SessionID:     sessionID,
		Interval:      compartment.HeartbeatInterval,
		MissThreshold: compartment.MissThreshold,
		RegisteredAt:  s.clock.Now(),
	}

	if err := s.records.Save(ctx, record); err != nil {
		return fmt.Errorf("save heartbeat record: %w", err)
	}

	s.logger.Info("agent registered for continuity",
		zap.String("agent", string(agentID)),
		zap.Duration("interval", record.Interval),
		zap.Int("miss_threshold", record.MissThreshold))

	return nil
}

// IssueChallenge replaces any unconsumed prior challenge for the agent. At
// most one challenge is live per agent at a time.
func (s *ContinuityService) IssueChallenge(ctx context.Context, agentID domain.AgentID, sessionID string) (ChallengeTicket, error) {
	record, err := s.records.Get(ctx, agentID)
	if err != nil {
		return ChallengeTicket{}, err
	}
	if record.SessionID != sessionID {
		return ChallengeTicket{}, domain.ErrSessionMismatch
	}
	if record.Compromised {
		return ChallengeTicket{}, domain.ErrAgentCompromised
	}

	seed, err := randomHex(seedBytes)
	if err != nil {
		return ChallengeTicket{}, fmt.Errorf("generate challenge seed: %w", err)
	}

	now := s.clock.Now()
	challenge := domain.Challenge{
		Seed:      seed,
		IssuedAt:  now,
		ExpiresAt: now.Add(challengeWindow),
	}

	s.mu.Lock()
	s.challenges[agentID] = challenge
	s.mu.Unlock()

	return ChallengeTicket{Seed: seed, ExpiresIn: challengeWindow}, nil
}

// ValidateResponse consumes the outstanding challenge. Any failure increments
// the consecutive-miss counter; a success resets it. The miss-threshold trip
// marks the agent compromised exactly once, and later calls report the
// tripped state with the frozen counter.
func (s *ContinuityService) ValidateResponse(ctx context.Context, agentID domain.AgentID, sessionID, response string) (HeartbeatResult, error) {
	record, err := s.records.Get(ctx, agentID)
	if err != nil {
		return HeartbeatResult{}, err
	}
	if record.SessionID != sessionID {
		return HeartbeatResult{}, domain.ErrSessionMismatch
	}
	if record.Compromised {
		return HeartbeatResult{
			Reason:              FailureCompromised,
			ConsecutiveMisses:   record.ConsecutiveMisses,
			CompromiseTriggered: true,
		}, nil
	}

	s.mu.Lock()
	challenge, ok := s.challenges[agentID]
	delete(s.challenges, agentID)
	s.mu.Unlock()

	if !ok {
		return HeartbeatResult{}, domain.ErrNoChallenge
	}

	now := s.clock.Now()
	if challenge.Expired(now) {
		return s.recordMiss(ctx, record, FailureChallengeExpired)
	}

	secret, err := s.secrets.Get(ctx, secretKey(agentID))
	if err != nil {
		return HeartbeatResult{}, fmt.Errorf("load heartbeat secret: %w", err)
	}

	expected := computeResponse(secret, challenge.Seed)
	if !hmac.Equal([]byte(expected), []byte(response)) {
		return s.recordMiss(ctx, record, FailureWrongResponse)
	}

	record.ConsecutiveMisses = 0
	record.TotalHeartbeats++
	record.LastHeartbeat = now

	if err := s.records.Save(ctx, record); err != nil {
		return HeartbeatResult{}, fmt.Errorf("save heartbeat record: %w", err)
	}

	return HeartbeatResult{Success: true}, nil
}

// ComputeResponse models the remote side of the heartbeat for closed-loop
// operation without exposing the bound secret to callers.
func (s *ContinuityService) ComputeResponse(ctx context.Context, agentID domain.AgentID, sessionID, seed string) (string, error) {
	record, err := s.records.Get(ctx, agentID)
	if err != nil {
		return "", err
	}
	if record.SessionID != sessionID {
		return "", domain.ErrSessionMismatch
	}

	secret, err := s.secrets.Get(ctx, secretKey(agentID))
	if err != nil {
		return "", fmt.Errorf("load heartbeat secret: %w", err)
	}

	return computeResponse(secret, seed), nil
}

// CheckDeadHeartbeats flags agents silent for more than twice their heartbeat
// interval. Already-compromised agents are skipped, which makes repeated
// sweeps idempotent.
func (s *ContinuityService) CheckDeadHeartbeats(ctx context.Context, now time.Time) ([]domain.AgentID, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list heartbeat records: %w", err)
	}

	var dead []domain.AgentID
	for _, record := range records {
		if record.Compromised || !record.Dead(now) {
			continue
		}

		record.Compromised = true
		if err := s.records.Save(ctx, record); err != nil {
			return dead, fmt.Errorf("save heartbeat record: %w", err)
		}

		s.logger.Warn("dead heartbeat detected",
			zap.String("agent", string(record.AgentID)),
			zap.Time("last_heartbeat", record.LastHeartbeat))

		dead = append(dead, record.AgentID)
	}

	return dead, nil
}

// Deregister is the clean exit: record, pending challenge and secret are all
// removed. Returns the total verified heartbeat count for audit.
func (s *ContinuityService) Deregister(ctx context.Context, agentID domain.AgentID) (int, error) {
	record, err := s.records.Get(ctx, agentID)
	if err != nil {
		return 0, err
	}

	if err := s.records.Delete(ctx, agentID); err != nil {
		return 0, fmt.Errorf("delete heartbeat record: %w", err)
	}

	s.mu.Lock()
	delete(s.challenges, agentID)
	s.mu.Unlock()

	if err := s.secrets.Delete(ctx, secretKey(agentID)); err != nil {
		return record.TotalHeartbeats, fmt.Errorf("delete heartbeat secret: %w", err)
	}

	return record.TotalHeartbeats, nil
}

func (s *ContinuityService) Records(ctx context.Context) ([]domain.HeartbeatRecord, error) {
	return s.records.List(ctx)
}

func (s *ContinuityService) recordMiss(ctx context.Context, record domain.HeartbeatRecord, reason HeartbeatFailureReason) (HeartbeatResult, error) {
	record.ConsecutiveMisses++

	triggered := false
	if record.ConsecutiveMisses >= record.MissThreshold {
		record.Compromised = true
		triggered = true
	}

	if err := s.records.Save(ctx, record); err != nil {
		return HeartbeatResult{}, fmt.Errorf("save heartbeat record: %w", err)
	}

	if triggered {
		s.logger.Warn("heartbeat miss threshold tripped",
			zap.String("agent", string(record.AgentID)),
			zap.Int("misses", record.ConsecutiveMisses))
	}

	return HeartbeatResult{
		Reason:              reason,
		ConsecutiveMisses:   record.ConsecutiveMisses,
		CompromiseTriggered: triggered,
	}, nil
}

func computeResponse(secret, seed string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(seed))
	return hex.EncodeToString(mac.Sum(nil))
}

func secretKey(agentID domain.AgentID) string {
	return "continuity/" + string(agentID)
}
