// Package audit records every arbitration-relevant decision a turn
// makes. The trail answers "why did this turn emit, clarify, or stop"
// after the fact.
package audit

import (
	"time"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Module identifies which pipeline stage logged the entry.
type Module string

const (
	ModuleIntake    Module = "intake"
	ModuleOversight Module = "oversight"
	ModuleMode      Module = "mode_selector"
	ModulePlanner   Module = "planner"
	ModuleQuality   Module = "quality"
	ModuleSafety    Module = "safety"
	ModuleFallback  Module = "fallback"
	ModuleArbiter   Module = "arbiter"
	ModuleOutput    Module = "output_controller"
)

// Entry is a single audit trail record for one module decision.
type Entry struct {
	ID             string               `json:"id"`
	Timestamp      time.Time            `json:"timestamp"`
	TurnID         string               `json:"turn_id"`
	SessionID      string               `json:"session_id"`
	Module         Module               `json:"module"`
	Decision       string               `json:"decision"`
	Detail         string               `json:"detail"`
	SafetyVerdict  string               `json:"safety_verdict,omitempty"`
	FallbackLevel  schema.FallbackLevel `json:"fallback_level"`
	QualityOverall float64              `json:"quality_overall,omitempty"`
	Emitted        bool                 `json:"emitted"`
}
