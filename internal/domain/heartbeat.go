package domain

import "time"

type HeartbeatRecord struct {
	AgentID           AgentID
	Role              RoleID
	SessionID         string
	Interval          time.Duration
	MissThreshold     int
	ConsecutiveMisses int
	TotalHeartbeats   int
	RegisteredAt      time.Time
	LastHeartbeat     time.Time
	Compromised       bool
}

// Dead reports elapsed-silence liveness failure: more than twice the heartbeat
// interval since the last verified heartbeat. Registration counts as the
// liveness baseline, so an agent that never answered a single challenge still
// becomes detectable.
func (r HeartbeatRecord) Dead(now time.Time) bool {
	baseline := r.LastHeartbeat
	if baseline.IsZero() {
		baseline = r.RegisteredAt
	}

	return now.Sub(baseline) > 2*r.Interval
}

type Challenge struct {
	Seed      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
