package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/skosovsky/mcptoolkit/bridge"
	"github.com/skosovsky/mcptoolkit/tools"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the registered tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	s := server.NewMCPServer(a.cfg.Server.Name, a.cfg.Server.Version, server.WithToolCapabilities(false))
	if err := bridge.Expose(s, a.dispatcher, tools.Schemas()); err != nil {
		return err
	}
	a.logger.InfoContext(cmd.Context(), "serving tools over stdio", "tools", a.reg.Len())
	return server.ServeStdio(s)
}
