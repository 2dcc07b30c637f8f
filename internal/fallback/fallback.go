// Package fallback owns the escalation state machine for a turn.
// Levels only move up while the turn is running; the single exception
// is the reset to normal that follows a passing quality evaluation.
package fallback

import (
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Actions recorded per level. The arbitrator and the audit trail both
// read these strings, so they are stable identifiers.
const (
	ActionRetryInternal  = "retry_internal"
	ActionClarifyNarrow  = "ask_narrow_clarification"
	ActionModeSwitch     = "switch_mode_or_degrade"
	ActionControlledStop = "stop_with_partial_results"
)

// ForceEscalationAfter is the consecutive-failure count that forces the
// machine to at least the clarify-narrow level.
const ForceEscalationAfter = 2

// Manager drives one turn's escalation state. Not safe for concurrent
// use; each turn owns its manager.
type Manager struct {
	state schema.FallbackState
}

// New starts a manager at the normal level, carrying over the failure
// streak from the previous turn of the same session.
func New(carriedFailures int) *Manager {
	if carriedFailures < 0 {
		carriedFailures = 0
	}
	return &Manager{state: schema.FallbackState{
		Level:                   schema.LevelNormal,
		ConsecutiveFailedChecks: carriedFailures,
	}}
}

// State returns a copy of the current state.
func (m *Manager) State() schema.FallbackState { return m.state }

// Level returns the current escalation level.
func (m *Manager) Level() schema.FallbackLevel { return m.state.Level }

// Escalate raises the level. Lower targets are ignored: the machine
// never de-escalates mid-turn.
func (m *Manager) Escalate(to schema.FallbackLevel, trigger string) {
	if to <= m.state.Level {
		return
	}
	if to > schema.LevelControlledStop {
		to = schema.LevelControlledStop
	}
	m.state.Level = to
	m.state.Trigger = trigger
	m.state.Action = actionFor(to)
}

// NextAttempt claims the next refinement slot. It returns the attempt
// number and false once the budget is spent, at which point the caller
// must escalate instead of retrying.
func (m *Manager) NextAttempt() (int, bool) {
	if m.state.RefinementAttempt >= schema.MaxRefinementAttempts {
		return m.state.RefinementAttempt, false
	}
	m.state.RefinementAttempt++
	return m.state.RefinementAttempt, true
}

// RecordQualityFailure notes a failed gate. Two consecutive failures
// force at least the clarify-narrow level even if nothing else fired.
func (m *Manager) RecordQualityFailure(trigger string) {
	m.state.ConsecutiveFailedChecks++
	m.Escalate(schema.LevelInternalRetry, trigger)
	if m.state.ConsecutiveFailedChecks >= ForceEscalationAfter {
		m.Escalate(schema.LevelClarifyNarrow, "consecutive_failed_checks")
	}
}

// RecordQualityPass resets the machine. This is the only transition
// that lowers the level, and it requires an actual passing evaluation.
func (m *Manager) RecordQualityPass() {
	m.state.Level = schema.LevelNormal
	m.state.Trigger = ""
	m.state.Action = ""
	m.state.ConsecutiveFailedChecks = 0
}

// RecordToolFailure escalates for an unavailable or failing tool.
// The first failure is retryable; a repeat degrades the mode.
func (m *Manager) RecordToolFailure(trigger string, repeated bool) {
	if repeated {
		m.Escalate(schema.LevelModeSwitch, trigger)
		return
	}
	m.Escalate(schema.LevelInternalRetry, trigger)
}

// RecordExhaustion ends the turn after the refinement budget is spent.
// Exhaustion is terminal: the turn stops with partial results instead
// of emitting or asking another round of questions.
func (m *Manager) RecordExhaustion() {
	m.Escalate(schema.LevelControlledStop, "refinement_attempts_exhausted")
}

// RecordSafetyStop forces the controlled stop. Injection attempts and
// safety blocks land here; there is no way back within the turn.
func (m *Manager) RecordSafetyStop(trigger string) {
	m.Escalate(schema.LevelControlledStop, trigger)
}

func actionFor(level schema.FallbackLevel) string {
	switch level {
	case schema.LevelInternalRetry:
		return ActionRetryInternal
	case schema.LevelClarifyNarrow:
		return ActionClarifyNarrow
	case schema.LevelModeSwitch:
		return ActionModeSwitch
	case schema.LevelControlledStop:
		return ActionControlledStop
	default:
		return ""
	}
}
