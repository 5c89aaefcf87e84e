package cli

import (
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/roach88/uniqperm/internal/perm"
	"github.com/roach88/uniqperm/internal/run"
)

// CountResult is the JSON payload of the count command.
type CountResult struct {
	Input      string `json:"input"`
	Length     int    `json:"length"`
	Candidates string `json:"candidates"`
	Distinct   string `json:"distinct"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <string>",
		Short: "Print how many distinct arrangements a string has",
		Long: `Print the number of distinct arrangements of a string without
enumerating them or touching the filesystem.

The count is n! divided by k! for every character repeated k times.

Examples:
  uniqperm count mississippi
  uniqperm count --format json abcdefghijklmnop`,
		Args:          exactlyOneInput,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runCount(opts *RootOptions, cmd *cobra.Command, input string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if err := run.ValidateInput(input); err != nil {
		_ = formatter.Error("USAGE", "invalid input", err.Error())
		return WrapExitError(ExitUsage, "invalid input", err)
	}

	result := CountResult{
		Input:      input,
		Length:     utf8.RuneCountInString(input),
		Candidates: perm.CandidateCount(input).String(),
		Distinct:   perm.DistinctCount(input).String(),
	}

	formatter.VerboseLog("length=%d candidates=%s", result.Length, result.Candidates)
	return formatter.Success(result, result.Distinct)
}
