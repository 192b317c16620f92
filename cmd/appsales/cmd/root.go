package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"appsales/internal/cli"
)

// NewRootCmd builds the command tree. Each call returns fresh commands and
// flag sets.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "appsales",
		Short:        "Monthly app subscription sales report from the Shopify Partner API",
		SilenceUsage: true,
	}
	root.AddCommand(newReportCmd())
	root.AddCommand(newHistoryCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	cli.LoadEnvFile()
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
