package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hochshi/vscode-python/internal/app"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/orchestrator"
)

func newConnectCmd() *cobra.Command {
	var (
		uri           string
		purpose       string
		enableDebug   bool
		defaultConfig bool
		workingDir    string
		keepAlive     bool
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Launch or dial a Jupyter notebook server and print the connection",
		Long: `Connects to a Jupyter notebook server. Without --uri a server is
launched locally against the best matching interpreter and kernel spec;
with --uri an already-running remote server is used.

The resolved connection is printed as JSON on stdout. With --keep-alive
the process stays up, holding the local server, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{Debug: rootDebug})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			options := orchestrator.ConnectOptions{
				Purpose:          jupyter.Purpose(purpose),
				URI:              uri,
				WorkingDir:       workingDir,
				EnableDebugging:  enableDebug,
				UseDefaultConfig: defaultConfig,
			}
			if options.URI == "" {
				options.URI = application.Config.Jupyter.RemoteURI
			}

			connected, err := application.Engine.ConnectToNotebookServer(cmd.Context(), options)
			if err != nil {
				return err
			}
			defer connected.Dispose()

			summary := map[string]interface{}{
				"base_url":     connected.LaunchInfo.ConnectionInfo.BaseURL,
				"local_launch": connected.LaunchInfo.ConnectionInfo.LocalLaunch,
			}
			if spec := connected.LaunchInfo.KernelSpec; spec != nil {
				summary["kernel_spec"] = spec.Name
			}
			if kernel := connected.Kernel(); kernel != nil {
				summary["kernel_id"] = kernel.ID
			}
			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if keepAlive {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				select {
				case <-sigCh:
				case <-cmd.Context().Done():
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Remote server URI, e.g. https://host:8888/?token=...")
	cmd.Flags().StringVar(&purpose, "purpose", string(jupyter.PurposeInteractive), "Connection purpose: interactive or notebook")
	cmd.Flags().BoolVar(&enableDebug, "enable-debugging", false, "Request kernel debugging support")
	cmd.Flags().BoolVar(&defaultConfig, "default-config", false, "Force default Jupyter configuration for local launches")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory passed to the connected session")
	cmd.Flags().BoolVar(&keepAlive, "keep-alive", false, "Hold the connection (and any local server) until interrupted")
	return cmd
}
