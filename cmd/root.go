package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "turnguard",
	Short: "Oversight pipeline for assistant turns",
	Long: `Turnguard runs assistant requests through an oversight pipeline:
it scores ambiguity and risk, drafts an answer, gates it on a quality
score, and escalates through bounded fallback levels instead of
guessing. Serve it over HTTP, expose it to agents via MCP, or run
single turns from the command line.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".turnguard.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
