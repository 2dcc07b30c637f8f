// Package pipeline runs the governed turn: intake, oversight, mode
// selection, drafting, quality gating, safety inspection, and
// arbitration, with the fallback machine watching every step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/turnguard/internal/arbiter"
	"github.com/ziadkadry99/turnguard/internal/audit"
	"github.com/ziadkadry99/turnguard/internal/config"
	"github.com/ziadkadry99/turnguard/internal/fallback"
	"github.com/ziadkadry99/turnguard/internal/intake"
	"github.com/ziadkadry99/turnguard/internal/mode"
	"github.com/ziadkadry99/turnguard/internal/oversight"
	"github.com/ziadkadry99/turnguard/internal/planner"
	"github.com/ziadkadry99/turnguard/internal/quality"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/safety"
	"github.com/ziadkadry99/turnguard/internal/schema"
	"github.com/ziadkadry99/turnguard/internal/session"
)

// Engine executes turns. Safe for concurrent use; per-session writes
// serialize inside the session store.
type Engine struct {
	cfg       *config.Config
	log       *zap.Logger
	sessions  *session.Store
	audit     *audit.Store
	evidence  *retrieval.Store
	composer  planner.Composer
	evaluator *quality.Evaluator
	metrics   Metrics
}

// NewEngine wires an engine. evidence may be nil when retrieval is not
// configured; drafting then proceeds ungrounded.
func NewEngine(cfg *config.Config, logger *zap.Logger, sessions *session.Store, auditStore *audit.Store, evidence *retrieval.Store, composer planner.Composer) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       logger,
		sessions:  sessions,
		audit:     auditStore,
		evidence:  evidence,
		composer:  composer,
		evaluator: quality.New(cfg.Pipeline.PassThreshold),
	}
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() Metrics { return e.metrics.Snapshot() }

// Result is the full outcome of one turn.
type Result struct {
	TurnID     string                      `json:"turn_id"`
	SessionID  string                      `json:"session_id"`
	Outcome    arbiter.Outcome             `json:"outcome"`
	Response   *schema.AssistantResponse   `json:"response"`
	Mode       schema.Mode                 `json:"mode"`
	Complexity schema.Complexity           `json:"complexity"`
	Assessment *schema.OversightAssessment `json:"assessment,omitempty"`
	Quality    *schema.PQSResult           `json:"quality,omitempty"`
	Fallback   schema.FallbackState        `json:"fallback"`
	Trace      []Event                     `json:"trace,omitempty"`
	Duration   time.Duration               `json:"-"`
}

// turn carries the in-flight state so helpers stay small.
type turn struct {
	id      string
	req     *schema.UserRequest
	result  *Result
	sink    Sink
	started time.Time
}

func (e *Engine) checkpoint(t *turn, module, name string, status Status, tier Tier, detail string) {
	ev := Event{Module: module, Name: name, Status: status, Tier: tier, Detail: detail, Timestamp: time.Now().UTC()}
	t.result.Trace = append(t.result.Trace, ev)
	if t.sink != nil {
		t.sink(ev)
	}
	e.log.Debug("checkpoint",
		zap.String("turn", t.id),
		zap.String("module", module),
		zap.String("name", name),
		zap.String("status", string(status)))
}

// Respond runs one governed turn. sink may be nil; events are always
// collected in the result trace.
func (e *Engine) Respond(ctx context.Context, raw *schema.UserRequest, sink Sink) (*Result, error) {
	started := time.Now()

	req, err := intake.Normalize(raw)
	if err != nil {
		return nil, err
	}

	t := &turn{
		id:      uuid.NewString(),
		req:     req,
		sink:    sink,
		started: started,
		result: &Result{
			SessionID: req.SessionID,
			Response:  &schema.AssistantResponse{},
		},
	}
	t.result.TurnID = t.id
	e.checkpoint(t, "normalizer", "request_normalized", StatusPass, TierOperational, "")

	cls := intake.Classify(req)
	t.result.Complexity = cls.Complexity
	e.checkpoint(t, "intake_classifier", "complexity_labeled", StatusPass, TierMeta, string(cls.Complexity))

	if cls.Conversation {
		return e.finishConversation(ctx, t)
	}

	if screen := safety.ScreenInput(req); screen.Injection {
		return e.finishInjection(ctx, t, screen)
	}
	e.checkpoint(t, "safety_guard", "input_screened", StatusPass, TierSafety, "")

	snap, err := e.sessions.Snapshot(ctx, req.SessionID, e.cfg.Pipeline.AmbiguityThreshold)
	if err != nil {
		return nil, err
	}

	resumed := false
	if snap.Suspended != nil {
		e.resumeSuspended(t, snap)
		resumed = true
	}

	assessment, err := oversight.Analyze(t.req)
	if err != nil {
		return nil, err
	}
	t.result.Assessment = assessment
	e.checkpoint(t, "oversight_analyzer", "ambiguity_scored", StatusPass, TierMeta,
		fmt.Sprintf("%.2f (threshold %.2f)", assessment.AmbiguityScore, snap.AmbiguityThreshold))
	if len(assessment.RiskFlags) > 0 {
		e.checkpoint(t, "oversight_analyzer", "risk_flagged", StatusAdjusted, TierSafety,
			fmt.Sprintf("%d flag(s)", len(assessment.RiskFlags)))
	}

	sel := mode.Select(t.req, assessment, snap.AmbiguityThreshold)
	// A resumed turn already consumed its clarification round; asking
	// again would loop the caller.
	if resumed && sel.Mode == schema.ModeClarify {
		sel = mode.Selection{Mode: schema.ModeExecute, Reason: "resumed_after_clarification"}
	}
	t.result.Mode = sel.Mode
	e.checkpoint(t, "mode_selector", "mode_proposed", StatusPass, TierMeta, string(sel.Mode))

	fb := fallback.New(snap.ConsecutiveFailedChecks)

	if sel.Mode == schema.ModeClarify {
		return e.finishClarify(ctx, t, assessment, fb, sel.Reason)
	}

	return e.refine(ctx, t, assessment, sel, fb, resumed)
}

// staleConfidenceCap is the ceiling on a draft's confidence when a
// freshness-critical task had to proceed without evidence. Below the
// low-confidence threshold, so assumptions get stated too.
const staleConfidenceCap = 0.50

// refine is the bounded draft-evaluate-arbitrate loop.
func (e *Engine) refine(ctx context.Context, t *turn, assessment *schema.OversightAssessment, sel mode.Selection, fb *fallback.Manager, resumed bool) (*Result, error) {
	evidence, retrievalFailed := e.gatherEvidence(ctx, t, fb)
	staleRisk := retrievalFailed && intake.IsFreshnessCritical(t.req.Task)

	composer := e.composer
	var (
		draft      *schema.AssistantResponse
		pqs        *schema.PQSResult
		inspection safety.OutputInspection
		feedback   []string
		decision   *arbiter.Decision
		degraded   bool
		attempts   int
	)

	for {
		attempt, ok := fb.NextAttempt()
		if !ok {
			fb.RecordExhaustion()
			e.checkpoint(t, "fallback_manager", "refinement_exhausted", StatusFallback, TierBottleneck,
				schema.ErrLoopExhausted.Error())
			break
		}
		attempts = attempt

		var err error
		draft, err = composer.Draft(ctx, planner.Input{
			Request:    t.req,
			Assessment: assessment,
			Mode:       sel.Mode,
			Evidence:   evidence,
			Feedback:   feedback,
			Attempt:    attempt,
		})
		if err != nil {
			if errors.Is(err, schema.ErrToolFailure) {
				fb.RecordToolFailure("draft_provider_failure", degraded)
				e.checkpoint(t, "planner", "draft_failed", StatusFallback, TierBottleneck, err.Error())
				if !degraded {
					// Degrade once to the offline composer, then give up.
					composer = planner.NewLocalComposer()
					degraded = true
					continue
				}
				break
			}
			if errors.Is(err, schema.ErrSchemaViolation) {
				fb.RecordQualityFailure("draft_schema_violation")
				feedback = []string{"previous draft was not valid structured output"}
				e.checkpoint(t, "planner", "draft_rejected", StatusAdjusted, TierOperational, err.Error())
				continue
			}
			return nil, err
		}
		e.checkpoint(t, "planner", "draft_produced", StatusPass, TierOperational,
			fmt.Sprintf("attempt %d via %s", attempt, composer.Name()))

		// A time-sensitive answer with no evidence behind it never goes
		// out as a bare assertion.
		if staleRisk {
			draft.Caveats = append(draft.Caveats,
				"evidence retrieval failed; time-sensitive claims here are unverified and may be stale")
			if draft.Confidence > staleConfidenceCap {
				draft.Confidence = staleConfidenceCap
			}
			// Capped confidence demands stated assumptions.
			if len(draft.Assumptions) == 0 {
				draft.Assumptions = append(draft.Assumptions,
					"assumed previously known information is still current; retrieval could not confirm it")
			}
			e.checkpoint(t, "retrieval", "ungrounded_freshness_downgrade", StatusFallback, TierBottleneck,
				fmt.Sprintf("confidence capped at %.2f", draft.Confidence))
		}

		pqs = e.evaluator.Evaluate(quality.Input{
			Draft:      draft,
			Request:    t.req,
			Mode:       sel.Mode,
			Complexity: t.result.Complexity,
			RiskFlags:  assessment.RiskFlags,
		})
		t.result.Quality = pqs
		if pqs.RevisionRequired {
			fb.RecordQualityFailure("pqs_below_threshold")
			e.checkpoint(t, "quality_evaluator", "pqs_scored", StatusAdjusted, TierBottleneck,
				fmt.Sprintf("%s: %.2f < %.2f", schema.ErrQualityGateFailure, pqs.Overall, e.evaluator.PassThreshold()))
		} else {
			fb.RecordQualityPass()
			e.checkpoint(t, "quality_evaluator", "pqs_scored", StatusPass, TierBottleneck,
				fmt.Sprintf("%.2f", pqs.Overall))
		}

		inspection = safety.InspectOutput(draft, t.req.RiskTolerance)
		tier := TierSafety
		status := StatusPass
		if inspection.Verdict != safety.VerdictAllow {
			status = StatusBlocked
		}
		e.checkpoint(t, "safety_guard", "output_inspected", status, tier, string(inspection.Verdict))

		var err2 error
		decision, err2 = arbiter.Decide(arbiter.Input{
			Safety:       inspection,
			Fallback:     fb.State(),
			Quality:      pqs,
			ProposedMode: sel.Mode,
			Draft:        draft,
			AttemptsLeft: fb.State().RefinementAttempt < schema.MaxRefinementAttempts,
		})
		if err2 != nil {
			return nil, err2
		}
		e.checkpoint(t, "output_arbitrator", "decision", statusFor(decision.Outcome), TierMeta,
			fmt.Sprintf("%s by %s", decision.Outcome, decision.Authority))
		for _, c := range decision.Conflicts {
			e.checkpoint(t, "output_arbitrator", "conflict_recorded", StatusAdjusted, TierMeta, c)
		}

		if decision.Outcome == arbiter.OutcomeRevise {
			feedback = append([]string{}, pqs.FailureReasons...)
			feedback = append(feedback, inspection.Reasons...)
			continue
		}
		break
	}

	if decision == nil || decision.Outcome == arbiter.OutcomeRevise {
		// Loop left without a terminal decision: budget exhausted or
		// drafting unavailable.
		d, err := arbiter.Decide(arbiter.Input{
			Safety:       inspection,
			Fallback:     fb.State(),
			Quality:      pqs,
			ProposedMode: sel.Mode,
			Draft:        draft,
			AttemptsLeft: false,
		})
		if err != nil {
			if errors.Is(err, schema.ErrArbitrationConflict) && draft == nil {
				return e.finishStopped(ctx, t, fb, attempts, "drafting unavailable")
			}
			return nil, err
		}
		decision = d
	}

	switch decision.Outcome {
	case arbiter.OutcomeEmit:
		return e.finishEmit(ctx, t, draft, pqs, inspection, fb, attempts)
	case arbiter.OutcomeClarify:
		return e.finishClarify(ctx, t, assessment, fb, strings.Join(decision.Reasons, "; "))
	case arbiter.OutcomeBlock:
		return e.finishBlocked(ctx, t, decision, fb, attempts)
	default:
		return e.finishStopped(ctx, t, fb, attempts, strings.Join(decision.Reasons, "; "))
	}
}

func statusFor(o arbiter.Outcome) Status {
	switch o {
	case arbiter.OutcomeEmit:
		return StatusPass
	case arbiter.OutcomeBlock, arbiter.OutcomeStop:
		return StatusBlocked
	default:
		return StatusAdjusted
	}
}

// gatherEvidence searches the evidence store. The second return is
// true when a search was attempted and failed.
func (e *Engine) gatherEvidence(ctx context.Context, t *turn, fb *fallback.Manager) ([]retrieval.Result, bool) {
	if e.evidence == nil || e.evidence.Count() == 0 {
		return nil, false
	}
	if t.result.Complexity == schema.ComplexitySimple && !intake.IsFreshnessCritical(t.req.Task) {
		return nil, false
	}
	results, err := e.evidence.Search(ctx, t.req.Task, 5, nil)
	if err != nil {
		fb.RecordToolFailure("retrieval_failure", false)
		e.checkpoint(t, "retrieval", "evidence_search_failed", StatusFallback, TierBottleneck, err.Error())
		return nil, true
	}
	e.checkpoint(t, "retrieval", "evidence_gathered", StatusPass, TierOperational,
		fmt.Sprintf("%d result(s)", len(results)))
	return results, false
}

func (e *Engine) resumeSuspended(t *turn, snap *session.Session) {
	suspended := snap.Suspended
	answers := t.req.Task

	merged := *suspended.Request
	merged.Context = strings.TrimSpace(merged.Context + "\nClarification answers: " + answers)
	merged.SessionID = t.req.SessionID
	t.req = &merged

	e.checkpoint(t, "session", "suspended_turn_resumed", StatusAdjusted, TierMeta,
		fmt.Sprintf("%d question(s) answered", len(suspended.Questions)))
}

func (e *Engine) finishConversation(ctx context.Context, t *turn) (*Result, error) {
	t.result.Mode = schema.ModeExecute
	t.result.Response = &schema.AssistantResponse{
		Answer:           "Happy to chat. When there is a concrete task, describe the objective and any constraints and it goes through the full review pipeline.",
		ReasoningSummary: "conversational turn, governance bypassed",
		Checks:           []schema.Check{},
		NextStepOptions:  []string{"describe a task to work on"},
		Assumptions:      []string{},
		Confidence:       0.95,
	}
	t.result.Outcome = arbiter.OutcomeEmit
	e.checkpoint(t, "intake_classifier", "conversation_short_circuit", StatusPass, TierMeta, "")
	return e.finalize(ctx, t, nil, "conversation", true, 0)
}

func (e *Engine) finishInjection(ctx context.Context, t *turn, screen safety.InputScreen) (*Result, error) {
	fb := fallback.New(0)
	fb.RecordSafetyStop("prompt_injection")
	t.result.Fallback = fb.State()
	t.result.Outcome = arbiter.OutcomeBlock
	t.result.Response = &schema.AssistantResponse{
		Answer:           "This request was not processed: it contains instructions that try to override the assistant's operating rules. Restate the task without them and it will be handled normally.",
		ReasoningSummary: "input screening matched injection patterns: " + strings.Join(screen.Patterns, ", "),
		Checks:           []schema.Check{},
		NextStepOptions:  []string{"restate the task without meta-instructions"},
		Assumptions:      []string{},
		Confidence:       0.99,
	}
	e.checkpoint(t, "safety_guard", "input_blocked", StatusBlocked, TierSafety, strings.Join(screen.Patterns, ", "))
	return e.finalize(ctx, t, fb, "block", false, 0)
}

func (e *Engine) finishClarify(ctx context.Context, t *turn, assessment *schema.OversightAssessment, fb *fallback.Manager, reason string) (*Result, error) {
	questions := assessment.RecommendedQuestions
	if len(questions) == 0 {
		questions = []string{"What specific outcome should this produce?"}
	}

	draft, err := planner.NewLocalComposer().Draft(ctx, planner.Input{
		Request:    t.req,
		Assessment: assessment,
		Mode:       schema.ModeClarify,
		Attempt:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(draft.Questions) == 0 {
		draft.Questions = questions
	}

	t.result.Mode = schema.ModeClarify
	t.result.Outcome = arbiter.OutcomeClarify
	t.result.Response = draft
	t.result.Fallback = fb.State()

	_, err = e.sessions.Update(ctx, t.req.SessionID, e.cfg.Pipeline.AmbiguityThreshold, func(sess *session.Session) error {
		sess.Suspended = &session.SuspendedTurn{
			Request:   t.req,
			Questions: questions,
			Mode:      schema.ModeClarify,
			ParkedAt:  time.Now().UTC(),
		}
		for _, missing := range assessment.MissingDecisions {
			sess.OpenDecisions = appendUnique(sess.OpenDecisions, missing)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.checkpoint(t, "output_controller", "clarification_emitted", StatusAdjusted, TierMeta, reason)
	return e.finalize(ctx, t, fb, "clarify", true, 0)
}

func (e *Engine) finishEmit(ctx context.Context, t *turn, draft *schema.AssistantResponse, pqs *schema.PQSResult, inspection safety.OutputInspection, fb *fallback.Manager, attempts int) (*Result, error) {
	if inspection.Sanitized != "" {
		draft.Answer = inspection.Sanitized
	}
	if len(inspection.Redacted) > 0 {
		draft.Caveats = append(draft.Caveats,
			"sensitive values were redacted from this answer: "+strings.Join(inspection.Redacted, ", "))
	}

	if err := schema.ValidateResponse(draft, t.result.Complexity, t.result.Assessment.RiskFlags); err != nil {
		return nil, err
	}

	t.result.Outcome = arbiter.OutcomeEmit
	t.result.Response = draft
	t.result.Quality = pqs
	t.result.Fallback = fb.State()

	_, err := e.sessions.Update(ctx, t.req.SessionID, e.cfg.Pipeline.AmbiguityThreshold, func(sess *session.Session) error {
		sess.Suspended = nil
		sess.FallbackLevel = fb.Level()
		sess.ConsecutiveFailedChecks = fb.State().ConsecutiveFailedChecks
		if sess.TightenThreshold() {
			e.checkpoint(t, "oversight_analyzer", "threshold_tightened", StatusAdjusted, TierMeta,
				fmt.Sprintf("%.2f", sess.AmbiguityThreshold))
		}
		for _, a := range draft.Assumptions {
			sess.CarriedAssumptions = appendUnique(sess.CarriedAssumptions, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.checkpoint(t, "output_controller", "response_emitted", StatusPass, TierMeta,
		fmt.Sprintf("pqs %.2f, attempts %d", pqs.Overall, attempts))
	return e.finalize(ctx, t, fb, "emit", true, attempts-1)
}

func (e *Engine) finishBlocked(ctx context.Context, t *turn, decision *arbiter.Decision, fb *fallback.Manager, attempts int) (*Result, error) {
	fb.RecordSafetyStop("unsafe_output")
	t.result.Outcome = arbiter.OutcomeBlock
	t.result.Fallback = fb.State()
	t.result.Response = &schema.AssistantResponse{
		Answer:           "The drafted response was withheld: " + strings.Join(decision.Reasons, "; ") + ". Narrow the request or add explicit safeguards and try again.",
		ReasoningSummary: "safety guard vetoed the draft",
		Checks:           []schema.Check{},
		NextStepOptions:  []string{"narrow the request", "add explicit rollback or confirmation steps"},
		Assumptions:      []string{},
		Confidence:       0.99,
	}
	e.checkpoint(t, "output_controller", "response_blocked", StatusBlocked, TierSafety, schema.ErrSafetyBlock.Error())
	return e.finalize(ctx, t, fb, "block", false, attempts-1)
}

func (e *Engine) finishStopped(ctx context.Context, t *turn, fb *fallback.Manager, attempts int, detail string) (*Result, error) {
	fb.RecordSafetyStop("controlled_stop")
	t.result.Outcome = arbiter.OutcomeStop
	t.result.Fallback = fb.State()

	partial := "No reliable result was produced."
	if t.result.Quality != nil {
		partial = fmt.Sprintf("Best draft scored %.2f, below the emission gate.", t.result.Quality.Overall)
	}
	t.result.Response = &schema.AssistantResponse{
		Answer:           "Stopping here instead of guessing. " + partial + " Reason: " + detail + ".",
		ReasoningSummary: "controlled stop with partial results",
		Checks:           []schema.Check{},
		NextStepOptions:  []string{"simplify the task", "provide more context", "retry later"},
		Assumptions:      []string{},
		Confidence:       0.40,
		Caveats:          []string{"this turn ended in a controlled stop; nothing was emitted as a final answer"},
	}
	e.checkpoint(t, "output_controller", "controlled_stop", StatusBlocked, TierSafety, detail)
	return e.finalize(ctx, t, fb, "stop", false, maxInt(attempts-1, 0))
}

// finalize persists the turn record, audit entries, and metrics.
func (e *Engine) finalize(ctx context.Context, t *turn, fb *fallback.Manager, outcome string, emitted bool, refinements int) (*Result, error) {
	t.result.Duration = time.Since(t.started)
	if fb != nil {
		t.result.Fallback = fb.State()
	}

	// Turn rows reference the session row; make sure it exists even on
	// paths that never touched the session store.
	if _, err := e.sessions.Snapshot(ctx, t.req.SessionID, e.cfg.Pipeline.AmbiguityThreshold); err != nil {
		e.log.Warn("ensuring session row", zap.Error(err))
	}

	level := t.result.Fallback.Level
	pqsOverall := 0.0
	if t.result.Quality != nil {
		pqsOverall = t.result.Quality.Overall
	}
	ambiguity := 0.0
	if t.result.Assessment != nil {
		ambiguity = t.result.Assessment.AmbiguityScore
	}
	safetyVerdict := "allow"
	if t.result.Outcome == arbiter.OutcomeBlock {
		safetyVerdict = "block"
	}

	// Session state for terminal non-emit outcomes.
	if outcome == "block" || outcome == "stop" {
		_, err := e.sessions.Update(ctx, t.req.SessionID, e.cfg.Pipeline.AmbiguityThreshold, func(sess *session.Session) error {
			sess.FallbackLevel = level
			sess.ConsecutiveFailedChecks = t.result.Fallback.ConsecutiveFailedChecks
			sess.TightenThreshold()
			return nil
		})
		if err != nil {
			e.log.Warn("persisting terminal session state", zap.Error(err))
		}
	}

	rec := &session.TurnRecord{
		ID:             t.id,
		SessionID:      t.req.SessionID,
		Task:           t.req.Task,
		Complexity:     t.result.Complexity,
		Mode:           t.result.Mode,
		AmbiguityScore: ambiguity,
		PQSOverall:     pqsOverall,
		FallbackLevel:  level,
		SafetyVerdict:  safetyVerdict,
		Emitted:        emitted,
		DurationMS:     t.result.Duration.Milliseconds(),
	}
	if err := e.sessions.RecordTurn(ctx, rec); err != nil {
		e.log.Warn("recording turn", zap.Error(err))
	}

	if err := e.audit.Log(ctx, audit.Entry{
		TurnID:         t.id,
		SessionID:      t.req.SessionID,
		Module:         audit.ModuleArbiter,
		Decision:       string(t.result.Outcome),
		Detail:         fmt.Sprintf("mode %s, %d checkpoint(s)", t.result.Mode, len(t.result.Trace)),
		SafetyVerdict:  safetyVerdict,
		FallbackLevel:  level,
		QualityOverall: pqsOverall,
		Emitted:        emitted,
	}); err != nil {
		e.log.Warn("writing audit entry", zap.Error(err))
	}

	e.metrics.record(outcome, refinements, t.result.Duration)
	e.log.Info("turn finished",
		zap.String("turn", t.id),
		zap.String("session", t.req.SessionID),
		zap.String("outcome", string(t.result.Outcome)),
		zap.Int("fallback_level", int(level)),
		zap.Float64("pqs", pqsOverall),
		zap.Duration("duration", t.result.Duration))
	return t.result, nil
}

func appendUnique(items []string, v string) []string {
	for _, it := range items {
		if it == v {
			return items
		}
	}
	return append(items, v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
