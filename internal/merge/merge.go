// Package merge folds every shard of a run into the final artifact and
// reclaims shard storage.
package merge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/uniqperm/internal/shard"
)

// Result describes a completed merge.
type Result struct {
	Artifact string `json:"artifact"`
	Lines    int64  `json:"lines"`
	Shards   int    `json:"shards"`
}

// Merger copies shards into a single artifact.
type Merger struct {
	store    *shard.Store
	registry *shard.Registry
	logger   *slog.Logger
}

// New creates a merger over the shards registered in registry.
// A nil logger discards log output.
func New(store *shard.Store, registry *shard.Registry, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Merger{store: store, registry: registry, logger: logger}
}

// Merge creates the artifact at path and appends every registered shard to
// it, in key order, preserving each shard's line order. Each shard is
// deleted (and forgotten by the registry) right after it has been flushed
// into the artifact.
//
// Merge must only run once generation has completed. On error the artifact
// may be partially written and unmerged shards remain on disk; there is no
// resume of a partial merge.
func (m *Merger) Merge(ctx context.Context, path string) (Result, error) {
	result := Result{Artifact: path}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return result, fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, key := range m.registry.Keys() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		lines, err := m.copyShard(w, key)
		if err != nil {
			return result, err
		}
		if err := w.Flush(); err != nil {
			return result, fmt.Errorf("write artifact: %w", err)
		}
		if err := m.store.Remove(key); err != nil {
			return result, err
		}
		m.registry.Remove(key)

		result.Lines += lines
		result.Shards++
		m.logger.Debug("shard merged", "key", key, "lines", lines)
	}

	if err := f.Close(); err != nil {
		return result, fmt.Errorf("close artifact: %w", err)
	}
	return result, nil
}

// copyShard writes every line of one shard to w, newline-terminated.
func (m *Merger) copyShard(w *bufio.Writer, key string) (int64, error) {
	in, err := m.store.Open(key)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	var lines int64
	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				line += "\n"
			}
			if _, werr := w.WriteString(line); werr != nil {
				return lines, fmt.Errorf("write artifact: %w", werr)
			}
			lines++
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, &shard.IOError{Op: "read", Key: key, Path: m.store.Path(key), Err: err}
		}
	}
}
