package session

import (
	"math"
	"time"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Session is the durable cross-turn state. One writer at a time per
// session; readers get point-in-time snapshots.
type Session struct {
	ID                      string               `json:"id"`
	FallbackLevel           schema.FallbackLevel `json:"fallback_level"`
	ConsecutiveFailedChecks int                  `json:"consecutive_failed_checks"`
	AmbiguityThreshold      float64              `json:"ambiguity_threshold"`
	OpenDecisions           []string             `json:"open_decisions"`
	ResolvedDecisions       []string             `json:"resolved_decisions"`
	CarriedAssumptions      []string             `json:"carried_assumptions"`
	Suspended               *SuspendedTurn       `json:"suspended,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
}

// SuspendedTurn holds a turn parked behind clarifying questions. The
// next turn on the session resumes it with the answers folded in.
type SuspendedTurn struct {
	Request   *schema.UserRequest `json:"request"`
	Questions []string            `json:"questions"`
	Mode      schema.Mode         `json:"mode"`
	ParkedAt  time.Time           `json:"parked_at"`
}

// TurnRecord is the per-turn summary row kept for session history.
type TurnRecord struct {
	ID             string               `json:"id"`
	SessionID      string               `json:"session_id"`
	Seq            int                  `json:"seq"`
	Task           string               `json:"task"`
	Complexity     schema.Complexity    `json:"complexity"`
	Mode           schema.Mode          `json:"mode"`
	AmbiguityScore float64              `json:"ambiguity_score"`
	PQSOverall     float64              `json:"pqs_overall"`
	FallbackLevel  schema.FallbackLevel `json:"fallback_level"`
	SafetyVerdict  string               `json:"safety_verdict"`
	Emitted        bool                 `json:"emitted"`
	DurationMS     int64                `json:"duration_ms"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Adaptive threshold bounds. Two consecutive governed failures tighten
// the clarification threshold one notch; it never drops below the floor.
const (
	ThresholdStep  = 0.02
	ThresholdFloor = 0.25
)

// TightenThreshold applies the adaptive-threshold rule in place and
// reports whether anything changed.
func (s *Session) TightenThreshold() bool {
	if s.ConsecutiveFailedChecks < 2 {
		return false
	}
	next := math.Round((s.AmbiguityThreshold-ThresholdStep)*100) / 100
	if next < ThresholdFloor {
		next = ThresholdFloor
	}
	if next == s.AmbiguityThreshold {
		return false
	}
	s.AmbiguityThreshold = next
	return true
}
