// Package run drives one complete enumeration: generation through the dedup
// gate into the shard store, then merge and cleanup into the final artifact.
//
// A Runner owns no state between runs. Every call to Run builds its own
// store, registry and gate, so the registry of shard keys is scoped to that
// run and shared only with the gate and the merger.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/uniqperm/internal/config"
	"github.com/roach88/uniqperm/internal/dedup"
	"github.com/roach88/uniqperm/internal/merge"
	"github.com/roach88/uniqperm/internal/perm"
	"github.com/roach88/uniqperm/internal/shard"
)

// Report summarizes a run. On failure the fields reached before the failure
// are filled in.
type Report struct {
	RunID      string        `json:"run_id"`
	Input      string        `json:"input"`
	Width      int           `json:"width"`
	Threshold  int           `json:"threshold"`
	Workers    int           `json:"workers"`
	Artifact   string        `json:"artifact,omitempty"`
	Candidates int64         `json:"candidates"`
	Unique     int64         `json:"unique"`
	Duplicates int64         `json:"duplicates"`
	Expected   string        `json:"expected"`
	Shards     int           `json:"shards"`
	Resumed    int           `json:"resumed_shards,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"-"`
	ElapsedMS  int64         `json:"elapsed_ms"`
}

// Runner executes runs with a fixed configuration.
type Runner struct {
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time
	ids    IDGenerator
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithClock overrides the wall clock used for timing and artifact names.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithIDGenerator overrides the run ID generator (default UUIDv7).
func WithIDGenerator(ids IDGenerator) Option {
	return func(r *Runner) {
		r.ids = ids
	}
}

// New creates a runner. cfg is assumed to be validated.
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run enumerates every unique arrangement of input into a new artifact.
//
// Generation must finish before the merge starts; any failure aborts the
// run immediately and leaves the remaining shard files on disk.
func (r *Runner) Run(ctx context.Context, input string) (*Report, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	if r.cfg.Normalize {
		input = norm.NFC.String(input)
	}

	n := utf8.RuneCountInString(input)
	width := shard.WidthFor(n, r.cfg.Threshold, r.cfg.Width)
	start := r.now()
	report := &Report{
		RunID:     r.ids.Generate(),
		Input:     input,
		Width:     width,
		Threshold: r.cfg.Threshold,
		Workers:   r.cfg.Workers,
		Expected:  perm.DistinctCount(input).String(),
		StartedAt: start,
	}
	logger := r.logger.With("run_id", report.RunID)
	finish := func() {
		report.Elapsed = r.now().Sub(start)
		report.ElapsedMS = report.Elapsed.Milliseconds()
	}

	store := shard.NewStore(r.cfg.Dir, r.cfg.ShardPrefix)
	registry := shard.NewRegistry()

	leftover, err := store.Scan()
	if err != nil {
		finish()
		return report, &RunError{Code: ErrCodeShardIO, Message: "cannot list shard directory", Path: store.Dir(), Err: err}
	}
	if len(leftover) > 0 && !r.cfg.Resume {
		finish()
		return report, &RunError{
			Code:    ErrCodeShardIO,
			Message: fmt.Sprintf("%d leftover shard files found; remove them with 'rm %s*' or resume the run", len(leftover), filepath.Join(store.Dir(), store.Prefix())),
			Path:    store.Dir(),
		}
	}
	keyer := shard.NewKeyer(width)
	for _, key := range leftover {
		if err := verifyLeftover(store, keyer, input, key); err != nil {
			finish()
			return report, &RunError{
				Code:    ErrCodeShardIO,
				Message: fmt.Sprintf("leftover shard files do not belong to this run; remove them with 'rm %s*'", filepath.Join(store.Dir(), store.Prefix())),
				Path:    store.Path(key),
				Err:     err,
			}
		}
		registry.Add(key)
	}
	report.Resumed = len(leftover)

	logger.Info("run starting",
		"input_len", n,
		"width", width,
		"sharded", keyer.Sharded(),
		"workers", r.cfg.Workers,
		"resumed_shards", report.Resumed,
	)

	strategy, err := perm.ParseStrategy(r.cfg.Strategy)
	if err != nil {
		finish()
		return report, &RunError{Code: ErrCodeInvalidInput, Message: "invalid strategy", Err: err}
	}
	gate := dedup.NewGate(store, keyer, registry, dedup.WithLogger(logger))
	gen := perm.New(strategy, r.cfg.Workers)

	genErr := gen.Generate(ctx, input, gate)
	stats := gate.Stats()
	report.Candidates = gen.Candidates()
	report.Duplicates = stats.Duplicates
	if genErr != nil {
		finish()
		if errors.Is(genErr, context.Canceled) || errors.Is(genErr, context.DeadlineExceeded) {
			return report, &RunError{Code: ErrCodeCanceled, Message: "generation interrupted; shard files left on disk", Path: store.Dir(), Err: genErr}
		}
		return report, &RunError{Code: ErrCodeShardIO, Message: "generation failed", Path: ioPath(genErr), Err: genErr}
	}
	logger.Info("generation complete",
		"candidates", report.Candidates,
		"committed", stats.Committed,
		"duplicates", stats.Duplicates,
		"shards", registry.Len(),
	)

	report.Artifact = r.artifactPath(input)
	res, err := merge.New(store, registry, logger).Merge(ctx, report.Artifact)
	report.Unique = res.Lines
	report.Shards = res.Shards
	finish()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return report, &RunError{Code: ErrCodeCanceled, Message: "merge interrupted; shard files left on disk", Path: store.Dir(), Err: err}
	}
	if err != nil {
		return report, &RunError{
			Code:    ErrCodeMergeIO,
			Message: fmt.Sprintf("error merging shards; clean up with 'rm %s*'", filepath.Join(store.Dir(), store.Prefix())),
			Path:    ioPath(err),
			Err:     err,
		}
	}

	logger.Info("run finished",
		"artifact", report.Artifact,
		"unique", report.Unique,
		"elapsed_ms", report.ElapsedMS,
	)
	return report, nil
}

// ValidateInput rejects inputs that cannot be stored one arrangement per
// line: invalid UTF-8 and line breaks.
func ValidateInput(input string) error {
	if !utf8.ValidString(input) {
		return &RunError{Code: ErrCodeInvalidInput, Message: "input is not valid UTF-8"}
	}
	if strings.ContainsAny(input, "\r\n") {
		return &RunError{Code: ErrCodeInvalidInput, Message: "input must not contain line breaks"}
	}
	return nil
}

// artifactPath names the final artifact from the input and the current time.
func (r *Runner) artifactPath(input string) string {
	name := r.cfg.ArtifactPrefix + shard.SafeName(input) + "_" + strconv.FormatInt(r.now().UnixMilli(), 10) + ".txt"
	return filepath.Join(r.cfg.Dir, name)
}

func ioPath(err error) string {
	var ioErr *shard.IOError
	if errors.As(err, &ioErr) {
		return ioErr.Path
	}
	return ""
}
