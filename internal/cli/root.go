// Package cli wires the service together and exposes its commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the laurel CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "laurel",
		Short:         "Laurel - client reconciliation service",
		Long:          "Laurel detects duplicate client records, drives their review and merge, and reconciles overlapping program enrollments.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewReconcileEnrollmentsCommand())

	return cmd
}
