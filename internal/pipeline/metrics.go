package pipeline

import (
	"sync"
	"time"
)

// Metrics tracks engine-wide counters across turns.
type Metrics struct {
	mu sync.Mutex

	Turns         int64         `json:"turns"`
	Emitted       int64         `json:"emitted"`
	Clarified     int64         `json:"clarified"`
	Blocked       int64         `json:"blocked"`
	Stopped       int64         `json:"stopped"`
	Conversations int64         `json:"conversations"`
	Refinements   int64         `json:"refinements"`
	TotalDuration time.Duration `json:"-"`
}

func (m *Metrics) record(outcome string, refinements int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Turns++
	m.Refinements += int64(refinements)
	m.TotalDuration += d
	switch outcome {
	case "emit":
		m.Emitted++
	case "clarify":
		m.Clarified++
	case "block":
		m.Blocked++
	case "stop":
		m.Stopped++
	case "conversation":
		m.Conversations++
		m.Emitted++
	}
}

// Snapshot returns a copy safe to serialize.
func (m *Metrics) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Turns:         m.Turns,
		Emitted:       m.Emitted,
		Clarified:     m.Clarified,
		Blocked:       m.Blocked,
		Stopped:       m.Stopped,
		Conversations: m.Conversations,
		Refinements:   m.Refinements,
		TotalDuration: m.TotalDuration,
	}
}
