// Package progress reports batch run progress, as a terminal bar or as
// plain lines when running under CI.
package progress

import (
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// outcomeOrder fixes the display order of arbitration outcomes in
// summaries.
var outcomeOrder = []string{"emit", "clarify", "block", "stop", "error"}

// Reporter provides progress feedback while a batch of turns runs.
// Update receives the arbitrated outcome of the turn just finished.
type Reporter interface {
	Start(total int)
	Update(current int, outcome string)
	Finish()
}

// NewReporter returns a TerminalReporter for interactive runs, or a
// CIReporter when the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{}
	}
	return &TerminalReporter{}
}

// TerminalReporter draws a progress bar with a running outcome tally.
type TerminalReporter struct {
	bar    *progressbar.ProgressBar
	counts map[string]int
}

func (r *TerminalReporter) Start(total int) {
	r.counts = map[string]int{}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Running turns"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, outcome string) {
	if r.bar == nil {
		return
	}
	r.counts[outcome]++
	r.bar.Describe("Running turns: " + summarize(r.counts))
	_ = r.bar.Set(current)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	total  int
	counts map[string]int
}

func (r *CIReporter) Start(total int) {
	r.total = total
	r.counts = map[string]int{}
	fmt.Fprintf(os.Stderr, "Running %d turns\n", total)
}

func (r *CIReporter) Update(current int, outcome string) {
	r.counts[outcome]++
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, r.total, outcome)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(os.Stderr, "Batch complete: %s\n", summarize(r.counts))
}

func summarize(counts map[string]int) string {
	parts := []string{}
	for _, k := range outcomeOrder {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
		}
	}
	if len(parts) == 0 {
		return "no turns yet"
	}
	return strings.Join(parts, ", ")
}
