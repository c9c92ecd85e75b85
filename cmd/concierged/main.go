// Package main provides the CLI entry point for the Concierge agent daemon.
//
// Concierge mediates between a tool-calling model and productivity-app
// integrations (Linear, Slack, GitHub, Notion, Gmail, Google Calendar),
// streaming turn events to its client over NDJSON and holding every write
// action for explicit user confirmation.
//
// # Basic Usage
//
// Start the server:
//
//	concierged serve --config concierge.yaml
//
// # Environment Variables
//
//   - COMPOSIO_API_KEY: tool-execution broker key
//   - GOOGLE_API_KEY / ANTHROPIC_API_KEY / OPENAI_API_KEY: model provider key
//   - SLACK_BOT_TOKEN: optional, direct Slack lookups for proposal enrichment
//   - GITHUB_TOKEN: optional, repository enrichment
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "concierged",
		Short: "Concierge - confirmable agent for productivity apps",
		Long: `Concierge runs a tool-calling model against Linear, Slack, GitHub, Notion,
Gmail, and Google Calendar. Reads execute immediately; writes are surfaced to
the user as confirmation proposals before anything changes.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildVersionCmd(),
	)
	return rootCmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("concierged %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
