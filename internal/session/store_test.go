package session

import (
	"context"
	"sync"
	"testing"

	"github.com/ziadkadry99/turnguard/internal/db"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestSnapshotCreatesWithDefaults(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Snapshot(context.Background(), "s1", 0.35)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sess.AmbiguityThreshold != 0.35 {
		t.Errorf("AmbiguityThreshold = %v, want 0.35", sess.AmbiguityThreshold)
	}
	if sess.FallbackLevel != schema.LevelNormal {
		t.Errorf("FallbackLevel = %d, want 0", sess.FallbackLevel)
	}
}

func TestUpdatePersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, "s1", 0.35, func(sess *Session) error {
		sess.ConsecutiveFailedChecks = 2
		sess.OpenDecisions = append(sess.OpenDecisions, "target environment")
		sess.CarriedAssumptions = append(sess.CarriedAssumptions, "staging first")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	sess, err := s.Snapshot(ctx, "s1", 0.35)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sess.ConsecutiveFailedChecks != 2 {
		t.Errorf("ConsecutiveFailedChecks = %d, want 2", sess.ConsecutiveFailedChecks)
	}
	if len(sess.OpenDecisions) != 1 || sess.OpenDecisions[0] != "target environment" {
		t.Errorf("OpenDecisions = %v", sess.OpenDecisions)
	}
	if len(sess.CarriedAssumptions) != 1 {
		t.Errorf("CarriedAssumptions = %v", sess.CarriedAssumptions)
	}
}

func TestSuspendedTurnRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req := &schema.UserRequest{
		Context: "a repo", Task: "do the thing", Constraints: []string{},
		SuccessCriteria: []string{}, Format: schema.DefaultFormat,
		RiskTolerance: schema.RiskMedium, SessionID: "s1",
	}
	_, err := s.Update(ctx, "s1", 0.35, func(sess *Session) error {
		sess.Suspended = &SuspendedTurn{Request: req, Questions: []string{"which thing?"}, Mode: schema.ModeClarify}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	sess, err := s.Snapshot(ctx, "s1", 0.35)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sess.Suspended == nil {
		t.Fatal("suspended turn lost")
	}
	if sess.Suspended.Request.Task != "do the thing" {
		t.Errorf("Task = %q", sess.Suspended.Request.Task)
	}

	_, err = s.Update(ctx, "s1", 0.35, func(sess *Session) error {
		sess.Suspended = nil
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	sess, _ = s.Snapshot(ctx, "s1", 0.35)
	if sess.Suspended != nil {
		t.Error("suspended turn should clear")
	}
}

func TestTightenThreshold(t *testing.T) {
	sess := &Session{AmbiguityThreshold: 0.35, ConsecutiveFailedChecks: 2}
	if !sess.TightenThreshold() {
		t.Fatal("should tighten after 2 consecutive failures")
	}
	if sess.AmbiguityThreshold != 0.33 {
		t.Errorf("AmbiguityThreshold = %v, want 0.33", sess.AmbiguityThreshold)
	}

	sess.AmbiguityThreshold = ThresholdFloor
	if sess.TightenThreshold() {
		t.Error("floor reached, must not change")
	}

	sess = &Session{AmbiguityThreshold: 0.35, ConsecutiveFailedChecks: 1}
	if sess.TightenThreshold() {
		t.Error("single failure must not tighten")
	}
}

func TestRecordTurnSequencing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Snapshot(ctx, "s1", 0.35); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	for i := 0; i < 3; i++ {
		rec := &TurnRecord{
			SessionID: "s1", Task: "t", Complexity: schema.ComplexitySimple,
			Mode: schema.ModeExecute, SafetyVerdict: "allow", Emitted: true,
		}
		if err := s.RecordTurn(ctx, rec); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
		if rec.Seq != i+1 {
			t.Errorf("Seq = %d, want %d", rec.Seq, i+1)
		}
	}

	turns, err := s.Turns(ctx, "s1")
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 3 {
		t.Errorf("len(turns) = %d, want 3", len(turns))
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "s1", 0.35, func(sess *Session) error {
				sess.ConsecutiveFailedChecks++
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	sess, err := s.Snapshot(ctx, "s1", 0.35)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sess.ConsecutiveFailedChecks != 10 {
		t.Errorf("ConsecutiveFailedChecks = %d, want 10 (lost update)", sess.ConsecutiveFailedChecks)
	}
}
