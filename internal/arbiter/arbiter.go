// Package arbiter resolves what a turn is allowed to emit. Authority
// order is fixed: safety outranks fallback, fallback outranks quality,
// quality outranks the output controller's preference. The same inputs
// always produce the same decision.
package arbiter

import (
	"fmt"

	"github.com/ziadkadry99/turnguard/internal/safety"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Outcome is the arbitrated result for a turn.
type Outcome string

const (
	OutcomeEmit    Outcome = "emit"
	OutcomeRevise  Outcome = "revise"
	OutcomeClarify Outcome = "clarify"
	OutcomeStop    Outcome = "stop"
	OutcomeBlock   Outcome = "block"
)

// Input gathers the module verdicts feeding one arbitration.
type Input struct {
	Safety       safety.OutputInspection
	Fallback     schema.FallbackState
	Quality      *schema.PQSResult
	ProposedMode schema.Mode
	Draft        *schema.AssistantResponse
	AttemptsLeft bool
}

// Decision is the arbitrated outcome plus the trail that produced it.
// Conflicts lists every lower authority the winning rule overrode.
type Decision struct {
	Outcome   Outcome
	Authority string
	Reasons   []string
	Conflicts []string
}

// Decide arbitrates one turn. It returns ErrArbitrationConflict only
// for inconsistent inputs that no precedence rule can resolve.
func Decide(in Input) (*Decision, error) {
	d := &Decision{Reasons: []string{}, Conflicts: []string{}}

	// Safety veto. Nothing overrides a block.
	if in.Safety.Verdict == safety.VerdictBlock {
		d.Outcome = OutcomeBlock
		d.Authority = "safety"
		d.Reasons = append(d.Reasons, in.Safety.Reasons...)
		noteOverrides(d, in, "safety")
		return d, nil
	}

	// Fallback at controlled stop ends the turn regardless of quality.
	if in.Fallback.Level >= schema.LevelControlledStop {
		d.Outcome = OutcomeStop
		d.Authority = "fallback"
		d.Reasons = append(d.Reasons, fmt.Sprintf("controlled stop: %s", in.Fallback.Trigger))
		noteOverrides(d, in, "fallback")
		return d, nil
	}

	// Mode switch or clarify-narrow outranks a passing quality score.
	if in.Fallback.Level >= schema.LevelClarifyNarrow {
		d.Outcome = OutcomeClarify
		d.Authority = "fallback"
		d.Reasons = append(d.Reasons, fmt.Sprintf("%s: %s", in.Fallback.Action, in.Fallback.Trigger))
		noteOverrides(d, in, "fallback")
		return d, nil
	}

	// Safety revise joins the quality loop at the same priority slot:
	// both demand another pass before anything is emitted.
	needsRevision := in.Safety.Verdict == safety.VerdictRevise ||
		(in.Quality != nil && in.Quality.RevisionRequired)
	if needsRevision {
		if in.AttemptsLeft {
			d.Outcome = OutcomeRevise
			d.Authority = "quality"
			if in.Safety.Verdict == safety.VerdictRevise {
				d.Authority = "safety"
				d.Reasons = append(d.Reasons, in.Safety.Reasons...)
			}
			if in.Quality != nil && in.Quality.RevisionRequired {
				d.Reasons = append(d.Reasons, in.Quality.FailureReasons...)
			}
			return d, nil
		}
		// Budget spent: controlled stop with partial results instead of
		// emitting a draft that failed its own gate.
		d.Outcome = OutcomeStop
		d.Authority = "fallback"
		d.Reasons = append(d.Reasons, "refinement budget exhausted with revision still required")
		return d, nil
	}

	// Advisory clarify from the mode selector.
	if in.ProposedMode == schema.ModeClarify {
		d.Outcome = OutcomeClarify
		d.Authority = "mode"
		d.Reasons = append(d.Reasons, "ambiguity requires clarification before work proceeds")
		return d, nil
	}

	if in.Draft == nil {
		return nil, fmt.Errorf("emit with no draft: %w", schema.ErrArbitrationConflict)
	}

	d.Outcome = OutcomeEmit
	d.Authority = "output_controller"
	return d, nil
}

// noteOverrides records the lower-authority verdicts the decision
// overrode, for the audit trail.
func noteOverrides(d *Decision, in Input, winner string) {
	if winner != "quality" && in.Quality != nil && !in.Quality.RevisionRequired && in.Quality.Overall > 0 {
		d.Conflicts = append(d.Conflicts, fmt.Sprintf("%s overrode passing quality score %.2f", winner, in.Quality.Overall))
	}
	if winner != "safety" && in.Safety.Verdict == safety.VerdictAllow && winner == "fallback" {
		d.Conflicts = append(d.Conflicts, "fallback overrode safety allow")
	}
	if in.ProposedMode != "" && in.ProposedMode != schema.ModeClarify && d.Outcome != OutcomeEmit {
		d.Conflicts = append(d.Conflicts, fmt.Sprintf("proposed mode %s not honored", in.ProposedMode))
	}
}
