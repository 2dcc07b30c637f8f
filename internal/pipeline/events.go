package pipeline

import "time"

// Tier grades how much a checkpoint matters to an operator watching
// the stream. Safety events always stream; operational detail is for
// debugging.
type Tier string

const (
	TierSafety      Tier = "tier0_safety"
	TierMeta        Tier = "tier1_meta"
	TierBottleneck  Tier = "tier2_bottleneck"
	TierOperational Tier = "tier3_operational"
)

// Status is the checkpoint outcome.
type Status string

const (
	StatusPass     Status = "pass"
	StatusAdjusted Status = "adjusted"
	StatusFallback Status = "fallback"
	StatusBlocked  Status = "blocked"
)

// Event is one checkpoint in a turn's trace.
type Event struct {
	Module    string    `json:"module"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Tier      Tier      `json:"tier"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives checkpoint events as the turn progresses. Sinks must
// not block; slow consumers drop detail, they do not stall the turn.
type Sink func(Event)
