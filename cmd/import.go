package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hochshi/vscode-python/internal/app"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <notebook.ipynb>",
		Short: "Convert a notebook to a Python script and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{Debug: rootDebug})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			text, err := application.Engine.ImportNotebook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
}
