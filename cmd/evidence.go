package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/turnguard/internal/retrieval"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Manage the evidence store",
}

var evidenceAddFlags struct {
	source string
	tier   int
	topic  string
}

var evidenceAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Add a piece of evidence",
	Long:  `Screens the content for prompt injection, then stores it with its source tier. Quarantined items are rejected.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		if d.evidence == nil {
			return fmt.Errorf("evidence store not configured")
		}

		accepted, err := d.evidence.Add(context.Background(), []retrieval.Evidence{{
			Content: args[0],
			Source:  evidenceAddFlags.source,
			Tier:    retrieval.SourceTier(evidenceAddFlags.tier),
			Topic:   evidenceAddFlags.topic,
		}})
		if err != nil {
			return err
		}

		fmt.Printf("Stored evidence %s (tier %d).\n", accepted[0].ID, accepted[0].Tier)
		return nil
	},
}

var evidenceSearchLimit int

var evidenceSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the evidence store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		if d.evidence == nil {
			return fmt.Errorf("evidence store not configured")
		}

		results, err := d.evidence.Search(context.Background(), args[0], evidenceSearchLimit, nil)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No evidence found.")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. [tier %d, %.0f%%] %s\n", i+1, r.Evidence.Tier, r.Similarity*100, r.Evidence.Content)
			if r.Caveat != "" {
				fmt.Printf("   caveat: %s\n", r.Caveat)
			}
		}
		return nil
	},
}

func init() {
	evidenceAddCmd.Flags().StringVar(&evidenceAddFlags.source, "source", "", "where the evidence came from")
	evidenceAddCmd.Flags().IntVar(&evidenceAddFlags.tier, "tier", int(retrieval.TierUnverified), "source tier: 1 verified, 2 reputable, 3 unverified")
	evidenceAddCmd.Flags().StringVar(&evidenceAddFlags.topic, "topic", "", "topic label for filtered search")
	evidenceSearchCmd.Flags().IntVar(&evidenceSearchLimit, "limit", 5, "maximum results")
	evidenceCmd.AddCommand(evidenceAddCmd)
	evidenceCmd.AddCommand(evidenceSearchCmd)
	rootCmd.AddCommand(evidenceCmd)
}
