// Package dedup implements the check-then-commit gate that records every
// unique arrangement exactly once in the shard store.
package dedup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/uniqperm/internal/shard"
)

// Stats counts the gate's decisions.
type Stats struct {
	Considered int64 `json:"considered"`
	Committed  int64 `json:"committed"`
	Duplicates int64 `json:"duplicates"`
}

// Gate decides membership of an arrangement in the shard store and commits
// it when absent.
//
// Thread-safety: Consider may be called from multiple goroutines. The
// existence check and the append for one Shard Key run under that key's
// mutex, so no shard ever receives the same line twice. Different keys
// proceed in parallel.
type Gate struct {
	store    *shard.Store
	keyer    shard.Keyer
	registry *shard.Registry
	logger   *slog.Logger
	locks    keyLocks

	considered atomic.Int64
	committed  atomic.Int64
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for shard lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a gate writing to store and recording keys in registry.
func NewGate(store *shard.Store, keyer shard.Keyer, registry *shard.Registry, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		keyer:    keyer,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:    keyLocks{m: make(map[string]*sync.Mutex)},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Consider commits arrangement unless an identical line already exists in
// its shard. It reports whether the arrangement was committed.
//
// Any shard I/O failure is returned wrapped; callers treat it as fatal.
func (g *Gate) Consider(ctx context.Context, arrangement string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.considered.Add(1)

	key := g.keyer.KeyFor(arrangement)
	mu := g.locks.get(key)
	mu.Lock()
	defer mu.Unlock()

	exists, err := g.store.Contains(key, arrangement)
	if err != nil {
		return false, fmt.Errorf("check arrangement: %w", err)
	}
	if exists {
		return false, nil
	}

	created, err := g.store.Append(key, arrangement)
	if err != nil {
		return false, fmt.Errorf("commit arrangement: %w", err)
	}
	if g.registry.Add(key) || created {
		g.logger.Debug("shard created", "key", key, "path", g.store.Path(key))
	}
	g.committed.Add(1)
	return true, nil
}

// Stats returns a snapshot of the gate's counters.
func (g *Gate) Stats() Stats {
	considered := g.considered.Load()
	committed := g.committed.Load()
	return Stats{
		Considered: considered,
		Committed:  committed,
		Duplicates: considered - committed,
	}
}

// keyLocks hands out one mutex per Shard Key. The number of keys is bounded
// by the number of shards, so entries are never evicted.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *keyLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.m[key]
	if !ok {
		mu = &sync.Mutex{}
		l.m[key] = mu
	}
	return mu
}
