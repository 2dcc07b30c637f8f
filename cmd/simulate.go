package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/turnguard/internal/progress"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

var simulateJSONOut bool

var simulateCmd = &cobra.Command{
	Use:   "simulate <requests.jsonl>",
	Short: "Run a batch of requests through the pipeline",
	Long: `Reads one JSON request per line and runs each through the pipeline,
then prints outcome counts. Useful for regression-checking threshold
changes against a corpus of recorded requests.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		requests, err := readRequests(args[0])
		if err != nil {
			return err
		}
		if len(requests) == 0 {
			return fmt.Errorf("no requests in %s", args[0])
		}

		reporter := progress.NewReporter()
		reporter.Start(len(requests))

		outcomes := map[string]int{}
		ctx := context.Background()
		for i, req := range requests {
			res, err := d.engine.Respond(ctx, req, nil)
			if err != nil {
				outcomes["error"]++
				reporter.Update(i+1, "error")
				continue
			}
			outcomes[string(res.Outcome)]++
			reporter.Update(i+1, string(res.Outcome))
		}
		reporter.Finish()

		if simulateJSONOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"outcomes": outcomes,
				"metrics":  d.engine.Metrics(),
			})
		}

		fmt.Printf("Ran %d turns:\n", len(requests))
		for _, k := range []string{"emit", "clarify", "block", "stop", "error"} {
			if outcomes[k] > 0 {
				fmt.Printf("  %-8s %d\n", k, outcomes[k])
			}
		}
		return nil
	},
}

func readRequests(path string) ([]*schema.UserRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var requests []*schema.UserRequest
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var req schema.UserRequest
		if err := json.Unmarshal(text, &req); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		requests = append(requests, &req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return requests, nil
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateJSONOut, "json", false, "print outcome counts and metrics as JSON")
	rootCmd.AddCommand(simulateCmd)
}
