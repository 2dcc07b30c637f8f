package fallback

import (
	"testing"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

func TestLevelIsMonotonic(t *testing.T) {
	m := New(0)
	m.Escalate(schema.LevelModeSwitch, "tool_unavailable")
	m.Escalate(schema.LevelInternalRetry, "late_retry")
	if m.Level() != schema.LevelModeSwitch {
		t.Errorf("Level = %d, want mode switch retained", m.Level())
	}
	if m.State().Trigger != "tool_unavailable" {
		t.Errorf("Trigger = %q, lower escalation must not overwrite", m.State().Trigger)
	}
}

func TestQualityPassResets(t *testing.T) {
	m := New(1)
	m.RecordQualityFailure("pqs_below_threshold")
	if m.Level() != schema.LevelClarifyNarrow {
		t.Errorf("Level = %d, want forced clarify-narrow after 2 consecutive failures", m.Level())
	}
	m.RecordQualityPass()
	if m.Level() != schema.LevelNormal {
		t.Errorf("Level = %d, want reset to normal", m.Level())
	}
	if m.State().ConsecutiveFailedChecks != 0 {
		t.Error("failure streak should reset on pass")
	}
}

func TestConsecutiveFailuresForceEscalation(t *testing.T) {
	m := New(0)
	m.RecordQualityFailure("pqs_below_threshold")
	if m.Level() != schema.LevelInternalRetry {
		t.Errorf("Level = %d, want internal retry after first failure", m.Level())
	}
	m.RecordQualityFailure("pqs_below_threshold")
	if m.Level() != schema.LevelClarifyNarrow {
		t.Errorf("Level = %d, want clarify-narrow after second failure", m.Level())
	}
}

func TestCarriedFailuresFromSession(t *testing.T) {
	m := New(1)
	m.RecordQualityFailure("pqs_below_threshold")
	if m.Level() != schema.LevelClarifyNarrow {
		t.Errorf("Level = %d, carried failure plus one new must force escalation", m.Level())
	}
}

func TestAttemptBudget(t *testing.T) {
	m := New(0)
	for want := 1; want <= schema.MaxRefinementAttempts; want++ {
		got, ok := m.NextAttempt()
		if !ok || got != want {
			t.Fatalf("NextAttempt = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := m.NextAttempt(); ok {
		t.Error("budget exhausted, NextAttempt must refuse")
	}
	m.RecordExhaustion()
	if m.Level() != schema.LevelControlledStop {
		t.Errorf("Level = %d, want controlled stop on exhaustion", m.Level())
	}
	if m.State().Action != ActionControlledStop {
		t.Errorf("Action = %q, want %q", m.State().Action, ActionControlledStop)
	}
}

func TestSafetyStopIsTerminal(t *testing.T) {
	m := New(0)
	m.RecordSafetyStop("prompt_injection")
	if m.Level() != schema.LevelControlledStop {
		t.Errorf("Level = %d, want controlled stop", m.Level())
	}
	if m.State().Action != ActionControlledStop {
		t.Errorf("Action = %q", m.State().Action)
	}
	if err := schema.ValidateFallbackState(&schema.FallbackState{
		Level:             m.Level(),
		RefinementAttempt: m.State().RefinementAttempt,
	}); err != nil {
		t.Errorf("state invalid: %v", err)
	}
}

func TestToolFailureEscalation(t *testing.T) {
	m := New(0)
	m.RecordToolFailure("retrieval_timeout", false)
	if m.Level() != schema.LevelInternalRetry {
		t.Errorf("Level = %d, want internal retry on first tool failure", m.Level())
	}
	m.RecordToolFailure("retrieval_timeout", true)
	if m.Level() != schema.LevelModeSwitch {
		t.Errorf("Level = %d, want mode switch on repeated tool failure", m.Level())
	}
}
