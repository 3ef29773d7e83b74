package domain

import (
	"strings"
	"time"
)

// CanaryMarkerPrefix is the convention that lets a bundle scan separate
// candidate canaries from ordinary credential material.
const CanaryMarkerPrefix = "cnry-"

type CanarySetStatus string

const (
	CanarySetActive      CanarySetStatus = "active"
	CanarySetSuperseded  CanarySetStatus = "superseded"
	CanarySetCompromised CanarySetStatus = "compromised"
)

type CanarySet struct {
	AgentID     AgentID
	Role        RoleID
	SessionID   string
	Markers     []string
	GeneratedAt time.Time
	Status      CanarySetStatus
}

func IsCanaryMarker(candidate string) bool {
	return strings.HasPrefix(candidate, CanaryMarkerPrefix)
}
