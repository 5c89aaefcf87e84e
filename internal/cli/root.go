package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// usageMessage is printed when the argument count is wrong.
const usageMessage = `Usage: Enter 1 string
Example: uniqperm permutateme`

// NewRootCommand creates the root command. Invoked with one argument it
// enumerates that string's unique arrangements.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&PermuteOptions{RootOptions: &RootOptions{}})
}

func newRootCommand(opts *PermuteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uniqperm [flags] <string>",
		Short: "Write every unique arrangement of a string to a file",
		Long: `Enumerate every distinct arrangement of the characters of a string and
write each one exactly once to master_permutations_<string>_<millis>.txt.

Arrangements are deduplicated on disk: each one is routed to a shard file
keyed by its leading characters, checked against that shard and appended
when new. Inputs longer than --threshold characters are sharded by their
first --width characters; shorter inputs use a single shard. When the
enumeration completes the shards are merged into the final file and
deleted.

Example:
  uniqperm abc
  uniqperm --threshold 4 --width 2 --dir /tmp/perms mississippi
  uniqperm --config uniqperm.cue --format json abcdefghij

Inputs named like a subcommand (count, history, help, completion) or
starting with "-" must follow "--":
  uniqperm -- help
  uniqperm --dir /tmp/perms -- -ab`,
		Args:          exactlyOneInput,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermute(cmd, opts, args[0])
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	addPermuteFlags(cmd, opts)

	cmd.AddCommand(NewCountCommand(opts.RootOptions))
	cmd.AddCommand(NewHistoryCommand(opts.RootOptions))

	return cmd
}

// exactlyOneInput rejects any argument count other than one.
func exactlyOneInput(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return NewExitError(ExitUsage, usageMessage)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger builds the run logger: text to w, Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
