package schema

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Only ErrQualityGateFailure and
// ErrToolFailure are retried automatically, and only within the stated
// caps. Everything else surfaces to the fallback machine or the caller.
var (
	// ErrSchemaViolation marks a malformed or missing required field.
	// Recovered locally by defaulting where the contract allows,
	// otherwise surfaced as a caller error.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrQualityGateFailure is recoverable and drives the refinement loop.
	ErrQualityGateFailure = errors.New("quality gate failure")

	// ErrSafetyBlock is terminal for the turn and never retried.
	ErrSafetyBlock = errors.New("safety block")

	// ErrToolFailure downgrades confidence and may trigger fallback.
	ErrToolFailure = errors.New("tool failure")

	// ErrLoopExhausted hands off to the level-4 controlled stop.
	ErrLoopExhausted = errors.New("refinement loop exhausted")

	// ErrArbitrationConflict should be unreachable given fixed
	// precedence. Observing it is a programming defect.
	ErrArbitrationConflict = errors.New("arbitration conflict")
)

// Violation wraps ErrSchemaViolation with the offending field.
func Violation(field, reason string) error {
	return fmt.Errorf("%w: field %q: %s", ErrSchemaViolation, field, reason)
}
