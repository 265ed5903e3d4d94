package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/teller"
	"github.com/aretw0/teller/internal/cli"
	"github.com/aretw0/teller/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the assistant as an MCP Server with the chat,
conversation_history and user_data tools and the teller://tools resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, _, logger, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Assistant, teller.Version,
			mcp.WithCatalog(app.Catalog),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Teller MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			logger.Info("Starting Teller MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(sigCtx, port); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
