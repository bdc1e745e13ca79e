package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hochshi/vscode-python/internal/app"
)

func newSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn <notebook.ipynb>",
		Short: "Launch a notebook server pointed at a file and leave it running",
		Long: `Starts a notebook server for the given file and exits immediately.
The server process keeps running; it belongs to the caller from then on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{Debug: rootDebug})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			spawned, err := application.Engine.SpawnNotebook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("notebook started (pid %d)\n", spawned.PID)
			return nil
		},
	}
}
