package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/turnguard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the oversight pipeline and its evidence store as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "turnguard MCP server started on stdio (provider=%s)\n", d.cfg.Provider)

		srv := mcpserver.NewServer(d.cfg, d.engine, d.sessions, d.evidence)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
