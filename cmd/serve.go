package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hochshi/vscode-python/internal/agentserver"
	"github.com/hochshi/vscode-python/internal/app"
)

// serveTransport overrides the configured MCP transport.
var serveTransport string

// serveCmd starts the long-lived agent server: editor agents connect over
// MCP and drive the engine through tools instead of one-shot subcommands.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the execution engine to editor agents over MCP",
	Long: `Starts a long-lived engine process exposing its operations as MCP
tools: connecting to notebook servers, importing notebooks, matching
kernel specs, and probing capabilities. The editor integration keeps one
engine process per workspace and multiplexes sessions through it.

Transports:
  sse    - HTTP Server-Sent Events endpoint on the configured host/port
  stdio  - MCP over stdin/stdout, for direct embedding`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.New(app.Options{Debug: rootDebug})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if serveTransport != "" {
		application.Config.Agent.Transport = serveTransport
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	srv := agentserver.New(application, rootCmd.Version)
	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: sse or stdio (defaults to configuration)")
}
