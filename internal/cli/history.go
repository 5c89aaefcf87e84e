package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/uniqperm/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded in a history database, most recent first.

Runs are recorded when the permutation command is given --db.

Examples:
  uniqperm history --db ./runs.db
  uniqperm history --db ./runs.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := history.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitRuntime, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.List(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitRuntime, "failed to list runs", err)
	}

	if opts.Format == "json" {
		if runs == nil {
			runs = []history.Run{}
		}
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(runs)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tINPUT\tUNIQUE\tWIDTH\tDURATION\tARTIFACT")
	for _, r := range runs {
		artifact := r.Artifact
		if r.Status == history.StatusFailed {
			artifact = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Format(time.RFC3339),
			r.Status,
			r.Input,
			r.Unique,
			r.Width,
			r.Duration,
			artifact,
		)
	}
	if err := tw.Flush(); err != nil {
		return WrapExitError(ExitRuntime, "failed to write output", err)
	}

	if opts.Verbose {
		for _, r := range runs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s candidates=%d shards=%d workers=%d threshold=%d\n",
				r.ID, r.Candidates, r.Shards, r.Workers, r.Threshold)
		}
	}
	return nil
}
