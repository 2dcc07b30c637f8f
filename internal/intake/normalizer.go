package intake

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

// NoContext is the placeholder the normalizer writes when the caller
// supplied no context. The analyzer treats it as absent.
const NoContext = "(none provided)"

// Normalize produces the canonical request every downstream module
// consumes. Missing optional fields get defaults; a missing task is a
// schema violation unless the turn is conversational.
func Normalize(req *schema.UserRequest) (*schema.UserRequest, error) {
	out := *req

	out.Task = strings.TrimSpace(out.Task)
	out.Context = strings.TrimSpace(out.Context)
	if out.Context == "" {
		out.Context = NoContext
	}

	if out.Constraints == nil {
		out.Constraints = []string{}
	}
	if out.SuccessCriteria == nil {
		out.SuccessCriteria = []string{}
	}
	out.Constraints = dropEmpty(out.Constraints)
	out.SuccessCriteria = dropEmpty(out.SuccessCriteria)

	if out.Format == "" {
		out.Format = schema.DefaultFormat
	}
	if out.RiskTolerance == "" {
		out.RiskTolerance = schema.RiskMedium
	}
	if out.MaxQuestions <= 0 || out.MaxQuestions > schema.MaxRecommendedQuestions {
		out.MaxQuestions = schema.MaxRecommendedQuestions
	}
	if out.SessionID == "" {
		out.SessionID = uuid.NewString()
	}

	if out.Task == "" && !IsConversation(out.Task, out.Context) {
		return nil, schema.Violation("task", "required")
	}

	if err := schema.ValidateUserRequest(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func dropEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
