// Package cli implements the mcptoolkit command: registry inspection, ad-hoc dispatch, a demo
// of the typed facades and an MCP stdio server over the dispatcher.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd returns the mcptoolkit command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "mcptoolkit",
		Short:         "MCP tool registry and dispatcher",
		Long:          "mcptoolkit registers MCP tools under canonical identifiers and dispatches calls to them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("notes-dsn", "", "SQLite notes database; selects the sqlite backend")
	root.PersistentFlags().Bool("tracking", false, "Report estimated token usage")
	root.PersistentFlags().Bool("telemetry", false, "Record OpenTelemetry metrics and report call counts")

	root.AddCommand(
		newVerifyCmd(),
		newDebugCmd(),
		newCallCmd(),
		newDemoCmd(),
		newServeCmd(),
	)
	return root
}
