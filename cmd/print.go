package cmd

import (
	"fmt"

	"github.com/ziadkadry99/turnguard/internal/pipeline"
)

func printResult(res *pipeline.Result) {
	fmt.Printf("Outcome:  %s\n", res.Outcome)
	fmt.Printf("Session:  %s\n", res.SessionID)
	fmt.Printf("Mode:     %s\n", res.Mode)
	if res.Quality != nil {
		fmt.Printf("Quality:  %.2f\n", res.Quality.Overall)
	}
	fmt.Printf("Fallback: level %d\n", res.Fallback.Level)

	if res.Response == nil {
		return
	}

	fmt.Println()
	fmt.Println(res.Response.Answer)

	if len(res.Response.Questions) > 0 {
		fmt.Println("\nQuestions:")
		for _, q := range res.Response.Questions {
			fmt.Printf("  - %s\n", q)
		}
	}
	if len(res.Response.Assumptions) > 0 {
		fmt.Println("\nAssumptions:")
		for _, a := range res.Response.Assumptions {
			fmt.Printf("  - %s\n", a)
		}
	}
	if len(res.Response.Caveats) > 0 {
		fmt.Println("\nCaveats:")
		for _, c := range res.Response.Caveats {
			fmt.Printf("  - %s\n", c)
		}
	}
	if len(res.Response.NextStepOptions) > 0 {
		fmt.Println("\nNext steps:")
		for _, s := range res.Response.NextStepOptions {
			fmt.Printf("  - %s\n", s)
		}
	}
}
