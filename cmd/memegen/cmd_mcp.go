package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the quote tools over MCP on stdio",
	Long:  "Exposes quotes_ingest, quotes_detect and quotes_formats to an MCP client over stdin/stdout.",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	pipe, err := newPipeline(current)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: "memegen", Version: version}, nil)
	pipe.RegisterMCP(srv)

	slog.Info("starting memegen MCP server over stdio")
	return srv.Run(cmd.Context(), &mcp.StdioTransport{})
}
