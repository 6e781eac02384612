package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	amcp "github.com/HolgerKurtz/meta-ads-insights/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the insights
pipeline as tools for AI agents. Supports stdio (default) and HTTP transports.

Tool calls without an access_token use graph.access_token from the
configuration (ADINSIGHTS_GRAPH_ACCESS_TOKEN). Tokens never appear in tool
results.`,
		Example: `  adinsights mcp                            # stdio mode
  adinsights mcp --transport http --port 3001  # Streamable HTTP mode`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(cmd *cobra.Command, transport string, port int) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	// stdout carries JSON-RPC in stdio mode, so logs always go to stderr.
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	mcpSrv := amcp.NewMCPServer(p.svc, p.fetcher, amcp.Options{
		AccessToken: p.settings.Graph.AccessToken,
		Logger:      p.logger,
	})

	if transport == "http" {
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	}
	return mcpSrv.ServeStdio()
}
