package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hochshi/vscode-python/internal/app"
)

func newKernelSpecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kernelspec",
		Short: "Inspect kernel spec matching",
	}
	cmd.AddCommand(newKernelSpecListCmd())
	cmd.AddCommand(newKernelSpecMatchCmd())
	return cmd
}

func newKernelSpecListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the kernel specs installed on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{Debug: rootDebug})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			specs, err := application.Matcher.ListKernelSpecs(cmd.Context())
			if err != nil {
				return err
			}
			entries := make([]map[string]interface{}, 0, len(specs))
			for _, spec := range specs {
				entries = append(entries, map[string]interface{}{
					"name":         spec.Name,
					"display_name": spec.DisplayName,
					"language":     spec.Language,
					"path":         spec.Path,
					"spec_file":    spec.SpecFile,
				})
			}
			out, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newKernelSpecMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match",
		Short: "Print the kernel spec that best matches the active interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.Options{Debug: rootDebug})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			spec, err := application.Matcher.GetMatchingKernelSpec(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if spec == nil {
				fmt.Println("no matching kernel spec")
				return nil
			}
			out, err := json.MarshalIndent(map[string]interface{}{
				"name":         spec.Name,
				"display_name": spec.DisplayName,
				"language":     spec.Language,
				"argv":         spec.Argv,
				"path":         spec.Path,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
