package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/laurel/pkg/enrollment"
)

// ReconcileOptions holds flags for the reconcile-enrollments command.
type ReconcileOptions struct {
	ClientID  string
	ProgramID string
	DryRun    bool
	Verbose   bool
	Stats     bool
}

// NewReconcileEnrollmentsCommand creates the reconcile-enrollments command.
func NewReconcileEnrollmentsCommand() *cobra.Command {
	opts := &ReconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile-enrollments",
		Short: "Merge overlapping program enrollments",
		Long: `Scan program enrollments for overlapping or adjacent date ranges on the
same client and program, merge each cluster into a single enrollment spanning
the combined range, and archive the rest.

Per-cluster failures are logged and skipped; the run continues and exits zero.

Example:
  laurel reconcile-enrollments --dry-run --stats
  laurel reconcile-enrollments --client-id 7f9c... --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "limit the run to one client")
	cmd.Flags().StringVar(&opts.ProgramID, "program-id", "", "limit the run to one program")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute and report without writing")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print per-cluster error details")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print run statistics as JSON")

	return cmd
}

func runReconcile(cmd *cobra.Command, opts *ReconcileOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	stats, err := app.Reconciler.ReconcileAll(ctx, enrollment.Filter{
		ClientID:  opts.ClientID,
		ProgramID: opts.ProgramID,
	}, opts.DryRun, "reconcile-enrollments")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if opts.Stats {
		encoded, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(encoded))
		return nil
	}

	mode := ""
	if opts.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "Reconciliation complete%s\n", mode)
	fmt.Fprintf(out, "  groups inspected:      %d\n", stats.GroupsInspected)
	fmt.Fprintf(out, "  clusters merged:       %d\n", stats.ClustersMerged)
	fmt.Fprintf(out, "  enrollments archived:  %d\n", stats.EnrollmentsArchived)
	fmt.Fprintf(out, "  client status changes: %d\n", stats.ClientStatusChanges)
	fmt.Fprintf(out, "  errors:                %d\n", stats.Errors)

	if opts.Verbose {
		for _, detail := range stats.ErrorDetails {
			fmt.Fprintf(out, "  error: %s\n", detail)
		}
	}

	return nil
}
