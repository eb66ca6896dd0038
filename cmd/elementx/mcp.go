package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/internal/cli"
	"github.com/aretw0/elementx/internal/logging"
	"github.com/aretw0/elementx/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the calculator to AI agents as MCP tools: calculate_sample,
parse_formula, normalize_element and list_elements.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			addr, _ := cmd.Flags().GetString("addr")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Logs go to stderr so they never corrupt JSON-RPC on stdout.
			logger := logging.NewWriter(os.Stderr, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
			log.SetOutput(os.Stderr)

			srv := mcp.NewServer(elementx.New(elementx.WithLogger(logger)), logger)

			switch transport {
			case "stdio":
				logger.Info("Starting ElementX MCP server (stdio)", "version", strings.TrimSpace(elementx.Version))
				return srv.ServeStdio()
			case "sse":
				ctx, stop := cli.ShutdownContext(cmd.Context(), logger)
				defer stop()

				baseURL := "http://localhost" + addr
				if !strings.HasPrefix(addr, ":") {
					baseURL = "http://" + addr
				}
				if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
					return err
				}
				logger.Info("MCP server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
			}
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().String("addr", ":8080", "Listen address (only for SSE)")
	return cmd
}
