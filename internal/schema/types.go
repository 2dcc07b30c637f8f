package schema

// RiskTolerance expresses how much residual risk the caller accepts.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// Complexity labels a turn as handled by the quick or the governed path.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityComplex Complexity = "complex"
)

// Mode is the interaction stance selected for a turn. Advisory only:
// the selector proposes, the arbitrator decides what is emitted.
type Mode string

const (
	ModeClarify  Mode = "clarify"
	ModePlan     Mode = "plan"
	ModeEvaluate Mode = "evaluate"
	ModeExecute  Mode = "execute"
)

// DefaultFormat is the canonical response format applied by the
// normalizer when the caller leaves format unset.
const DefaultFormat = "assistant_response_v1"

// UserRequest is the canonical, normalized turn input. Immutable after
// normalization within a turn.
type UserRequest struct {
	Context         string        `json:"context"`
	Task            string        `json:"task"`
	Constraints     []string      `json:"constraints"`
	SuccessCriteria []string      `json:"success_criteria"`
	Format          string        `json:"format"`
	RiskTolerance   RiskTolerance `json:"risk_tolerance"`
	SessionID       string        `json:"session_id,omitempty"`
	MaxQuestions    int           `json:"max_questions,omitempty"`
}

// RiskFlagType categorizes a detected risk.
type RiskFlagType string

const (
	RiskTypeSecurity    RiskFlagType = "security"
	RiskTypePrivacy     RiskFlagType = "privacy"
	RiskTypePolicy      RiskFlagType = "policy"
	RiskTypeReliability RiskFlagType = "reliability"
	RiskTypeAmbiguity   RiskFlagType = "ambiguity"
)

// Severity grades a risk flag.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFlag is one detected risk. Mitigation is mandatory: a flag
// without a mitigation string fails schema validation, it is never
// silently dropped.
type RiskFlag struct {
	Type       RiskFlagType `json:"type"`
	Severity   Severity     `json:"severity"`
	Detail     string       `json:"detail"`
	Mitigation string       `json:"mitigation"`
	Mitigated  bool         `json:"mitigated"`
}

// OversightAssessment is the analyzer's verdict for one turn. Created
// once, read-only downstream.
type OversightAssessment struct {
	AmbiguityScore       float64    `json:"ambiguity_score"`
	Notes                []string   `json:"notes"`
	RiskFlags            []RiskFlag `json:"risk_flags"`
	MissingDecisions     []string   `json:"missing_decisions"`
	RecommendedQuestions []string   `json:"recommended_questions"`
}

// MaxRecommendedQuestions caps how many clarifying questions may be
// surfaced per turn, ordered highest branch-reduction impact first.
const MaxRecommendedQuestions = 2

// PQSResult is the quality scorecard. Overall and RevisionRequired are
// computed-only: any inbound value is discarded and recomputed.
type PQSResult struct {
	Correctness      float64 `json:"correctness"`
	Completeness     float64 `json:"completeness"`
	FormatCompliance float64 `json:"format_compliance"`
	Efficiency       float64 `json:"efficiency"`
	Overall          float64 `json:"overall"`
	RevisionRequired bool    `json:"revision_required"`
	FailureReasons   []string `json:"failure_reasons,omitempty"`
}

// PassThreshold is the PQS overall score below which revision is required.
const PassThreshold = 8.0

// FallbackLevel is the escalation state, 0 through 4.
type FallbackLevel int

const (
	LevelNormal        FallbackLevel = 0
	LevelInternalRetry FallbackLevel = 1
	LevelClarifyNarrow FallbackLevel = 2
	LevelModeSwitch    FallbackLevel = 3
	LevelControlledStop FallbackLevel = 4
)

// MaxRefinementAttempts caps autonomous refinement within one turn.
const MaxRefinementAttempts = 3

// FallbackState is owned by the fallback manager. Level is monotonic
// non-decreasing within a turn, except a reset to 0 that only follows a
// passing quality evaluation.
type FallbackState struct {
	Level                   FallbackLevel `json:"level"`
	Trigger                 string        `json:"trigger"`
	Action                  string        `json:"action"`
	ConsecutiveFailedChecks int           `json:"consecutive_failed_checks"`
	RefinementAttempt       int           `json:"refinement_attempt"`
}

// CheckStatus is the outcome of one verification check.
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckFail CheckStatus = "fail"
	CheckSkip CheckStatus = "skip"
)

// Check maps a success criterion (or an internally required gate) to
// the evidence that it holds.
type Check struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Evidence string      `json:"evidence"`
	Severity Severity    `json:"severity"`
	Criterion string     `json:"criterion,omitempty"`
}

// AssistantResponse is the final emitted payload. Produced only by the
// output controller after arbitration passes.
type AssistantResponse struct {
	Answer           string   `json:"answer"`
	ReasoningSummary string   `json:"reasoning_summary"`
	Checks           []Check  `json:"checks"`
	NextStepOptions  []string `json:"next_step_options"`
	Assumptions      []string `json:"assumptions"`
	Plan             []string `json:"plan,omitempty"`
	Questions        []string `json:"questions,omitempty"`
	Confidence       float64  `json:"confidence"`
	Caveats          []string `json:"caveats,omitempty"`
}

// LowConfidenceThreshold is the confidence below which assumptions must
// be attached to the emitted response.
const LowConfidenceThreshold = 0.70
