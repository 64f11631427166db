package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simdeck",
	Short: "simdeck - interactive control deck for agent simulation",
	Long: `simdeck runs simulated agent sessions and puts an operator in the loop.

The server accepts agent requests and holds each one until a decision
arrives: approve, deny, or a composed response. The terminal UI explores
request payloads as a collapsible JSON tree, live against a session or
offline against a file.`,

	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(sessionsCmd)
}
