package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/uniqperm/internal/config"
	"github.com/roach88/uniqperm/internal/history"
	"github.com/roach88/uniqperm/internal/run"
)

// PermuteOptions holds flags for the permutation run.
type PermuteOptions struct {
	*RootOptions
	ConfigPath string
	Threshold  int
	Width      int
	Dir        string
	Workers    int
	Strategy   string
	Normalize  bool
	Resume     bool
	Database   string

	// Clock and IDGenerator override the wall clock and run IDs (for testing).
	Clock       func() time.Time
	IDGenerator run.IDGenerator
}

func addPermuteFlags(cmd *cobra.Command, opts *PermuteOptions) {
	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .cue)")
	flags.IntVar(&opts.Threshold, "threshold", defaults.Threshold, "input length above which arrangements are sharded")
	flags.IntVar(&opts.Width, "width", defaults.Width, "leading characters forming a shard key when sharded")
	flags.StringVar(&opts.Dir, "dir", defaults.Dir, "directory for shard files and the final artifact")
	flags.IntVar(&opts.Workers, "workers", defaults.Workers, "concurrent enumeration branches")
	flags.StringVar(&opts.Strategy, "strategy", defaults.Strategy, "enumeration strategy (auto|recursive|iterative)")
	flags.BoolVar(&opts.Normalize, "nfc", defaults.Normalize, "normalize the input to Unicode NFC first")
	flags.BoolVar(&opts.Resume, "resume", defaults.Resume, "reuse shard files left by an aborted run")
	flags.StringVar(&opts.Database, "db", defaults.Database, "record the run in this SQLite history database")
}

// resolveConfig applies defaults < config file < explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *PermuteOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Threshold = opts.Threshold
	}
	if flags.Changed("width") {
		cfg.Width = opts.Width
	}
	if flags.Changed("dir") {
		cfg.Dir = opts.Dir
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("strategy") {
		cfg.Strategy = opts.Strategy
	}
	if flags.Changed("nfc") {
		cfg.Normalize = opts.Normalize
	}
	if flags.Changed("resume") {
		cfg.Resume = opts.Resume
	}
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runPermute(cmd *cobra.Command, opts *PermuteOptions, input string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		_ = formatter.Error("USAGE", "invalid configuration", err.Error())
		return WrapExitError(ExitUsage, "invalid configuration", err)
	}
	if err := run.ValidateInput(input); err != nil {
		_ = formatter.Error("USAGE", "invalid input", err.Error())
		return WrapExitError(ExitUsage, "invalid input", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	runOpts := []run.Option{run.WithLogger(logger)}
	if opts.Clock != nil {
		runOpts = append(runOpts, run.WithClock(opts.Clock))
	}
	if opts.IDGenerator != nil {
		runOpts = append(runOpts, run.WithIDGenerator(opts.IDGenerator))
	}

	// Setup signal handling so an interrupt aborts generation cleanly.
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, aborting run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	formatter.Textf("Starting permutation of string:%s", input)

	report, runErr := run.New(cfg, runOpts...).Run(ctx, input)
	if report != nil {
		formatter.RunID = report.RunID
		recordHistory(ctx, logger, cfg, report, runErr)
	}

	if runErr != nil {
		code := string(run.ErrorCode(runErr))
		if code == "" {
			code = "RUNTIME"
		}
		_ = formatter.Error(code, "Error running permutations.", runErr.Error())
		exitCode := ExitRuntime
		if run.IsInvalidInput(runErr) {
			exitCode = ExitUsage
		}
		return WrapExitError(exitCode, "run failed", runErr)
	}

	formatter.VerboseLog("candidates=%d duplicates=%d shards=%d width=%d expected=%s",
		report.Candidates, report.Duplicates, report.Shards, report.Width, report.Expected)
	return formatter.Success(report,
		fmt.Sprintf("Finished generating permutations in %dms.", report.ElapsedMS),
		fmt.Sprintf("Wrote %d unique arrangements to %s", report.Unique, report.Artifact),
	)
}

// recordHistory stores the run outcome when a history database is
// configured. Failures are logged and never change the run's exit status.
func recordHistory(ctx context.Context, logger *slog.Logger, cfg config.Config, report *run.Report, runErr error) {
	if cfg.Database == "" {
		return
	}

	st, err := history.Open(cfg.Database)
	if err != nil {
		logger.Error("cannot open history database", "path", cfg.Database, "error", err)
		return
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing history database", "error", closeErr)
		}
	}()

	entry := history.Run{
		ID:         report.RunID,
		Input:      report.Input,
		Artifact:   report.Artifact,
		Width:      report.Width,
		Threshold:  report.Threshold,
		Workers:    report.Workers,
		Candidates: report.Candidates,
		Unique:     report.Unique,
		Shards:     report.Shards,
		StartedAt:  report.StartedAt,
		Duration:   report.Elapsed,
		Status:     history.StatusOK,
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.Error = runErr.Error()
	}

	// The run context may already be canceled; the record should still land.
	recordCtx := context.WithoutCancel(ctx)
	if err := st.Record(recordCtx, entry); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("cannot record run", "error", err)
	}
}
