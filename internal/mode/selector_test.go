package mode

import (
	"testing"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

func TestSelectClarifyWinsOverEverything(t *testing.T) {
	req := &schema.UserRequest{Task: "plan the architecture rollout"}
	a := &schema.OversightAssessment{AmbiguityScore: 0.50}
	sel := Select(req, a, 0.35)
	if sel.Mode != schema.ModeClarify {
		t.Errorf("Mode = %q, want clarify", sel.Mode)
	}
}

func TestSelectByWording(t *testing.T) {
	tests := []struct {
		task string
		want schema.Mode
	}{
		{"review the caching tradeoffs in the ingest path", schema.ModeEvaluate},
		{"plan the migration to the new queue", schema.ModePlan},
		{"design the notification architecture", schema.ModePlan},
		{"fix the off-by-one in the pager", schema.ModeExecute},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			a := &schema.OversightAssessment{AmbiguityScore: 0.10}
			sel := Select(&schema.UserRequest{Task: tt.task}, a, 0.35)
			if sel.Mode != tt.want {
				t.Errorf("Select(%q) = %q, want %q", tt.task, sel.Mode, tt.want)
			}
		})
	}
}

func TestSelectAtThresholdDoesNotClarify(t *testing.T) {
	req := &schema.UserRequest{Task: "fix the login redirect"}
	a := &schema.OversightAssessment{AmbiguityScore: 0.35}
	sel := Select(req, a, 0.35)
	if sel.Mode == schema.ModeClarify {
		t.Error("score equal to threshold should not trigger clarify")
	}
}
