package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jupyterd",
	Short: "Run Python code against Jupyter kernels from your editor",
	Long: `jupyterd is the execution engine behind interactive Python: it finds a
usable Jupyter installation, matches a kernel spec to the selected
interpreter, launches or dials a notebook server, and hands back a
connected session.`,
	// SilenceUsage prevents printing the usage message on errors we handle
	// ourselves (failed connections, missing capabilities).
	SilenceUsage: true,
}

// rootDebug forces debug logging from any subcommand.
var rootDebug bool

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "jupyterd version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newSpawnCmd())
	rootCmd.AddCommand(newKernelSpecCmd())
}
