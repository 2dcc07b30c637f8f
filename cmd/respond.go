package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/turnguard/internal/schema"
)

var respondFlags struct {
	sessionID   string
	taskContext string
	constraints []string
	criteria    []string
	risk        string
	format      string
	jsonOut     bool
}

var respondCmd = &cobra.Command{
	Use:   "respond <task>",
	Short: "Run a single request through the pipeline",
	Long: `Runs one turn: the task is classified, scored, drafted, quality-gated
and arbitrated, then the outcome is printed. Reuse --session to answer
clarifying questions from an earlier turn.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		req := &schema.UserRequest{
			Task:            strings.Join(args, " "),
			Context:         respondFlags.taskContext,
			Constraints:     respondFlags.constraints,
			SuccessCriteria: respondFlags.criteria,
			Format:          respondFlags.format,
			RiskTolerance:   schema.RiskTolerance(respondFlags.risk),
			SessionID:       respondFlags.sessionID,
		}

		res, err := d.engine.Respond(context.Background(), req, nil)
		if err != nil {
			return err
		}

		if respondFlags.jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		printResult(res)
		return nil
	},
}

func init() {
	respondCmd.Flags().StringVar(&respondFlags.sessionID, "session", "", "session to continue")
	respondCmd.Flags().StringVar(&respondFlags.taskContext, "context", "", "background the task is read against")
	respondCmd.Flags().StringSliceVar(&respondFlags.constraints, "constraint", nil, "constraint on the answer (repeatable)")
	respondCmd.Flags().StringSliceVar(&respondFlags.criteria, "criterion", nil, "success criterion (repeatable)")
	respondCmd.Flags().StringVar(&respondFlags.risk, "risk", "", "risk tolerance: low, medium or high")
	respondCmd.Flags().StringVar(&respondFlags.format, "format", "", "requested answer format")
	respondCmd.Flags().BoolVar(&respondFlags.jsonOut, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(respondCmd)
}
