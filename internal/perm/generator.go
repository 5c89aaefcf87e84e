package perm

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// MaxRecursiveDepth is the longest input StrategyAuto enumerates recursively.
const MaxRecursiveDepth = 64

// Strategy selects how the enumeration is driven.
type Strategy string

const (
	StrategyAuto      Strategy = "auto"
	StrategyRecursive Strategy = "recursive"
	StrategyIterative Strategy = "iterative"
)

// ValidStrategies lists the accepted strategy names.
var ValidStrategies = []Strategy{StrategyAuto, StrategyRecursive, StrategyIterative}

// ParseStrategy validates a strategy name. Empty selects StrategyAuto.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategyAuto, nil
	}
	for _, s := range ValidStrategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid strategy %q: must be one of %v", name, ValidStrategies)
}

// Sink receives every completed arrangement.
type Sink interface {
	Consider(ctx context.Context, arrangement string) (bool, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, arrangement string) (bool, error)

// Consider calls f.
func (f SinkFunc) Consider(ctx context.Context, arrangement string) (bool, error) {
	return f(ctx, arrangement)
}

// Generator enumerates arrangements and feeds them to a Sink.
//
// A Generator may be reused; Candidates accumulates across calls.
type Generator struct {
	strategy   Strategy
	workers    int
	candidates atomic.Int64
}

// New creates a generator. Workers below 1 are treated as 1.
func New(strategy Strategy, workers int) *Generator {
	if strategy == "" {
		strategy = StrategyAuto
	}
	if workers < 1 {
		workers = 1
	}
	return &Generator{strategy: strategy, workers: workers}
}

// Candidates returns how many arrangements have been handed to sinks,
// duplicates included.
func (g *Generator) Candidates() int64 {
	return g.candidates.Load()
}

// Generate enumerates every arrangement of input and hands each to sink.
//
// The first sink error aborts the enumeration and is returned wrapped.
func (g *Generator) Generate(ctx context.Context, input string, sink Sink) error {
	runes := []rune(input)
	walk := g.walker(len(runes))

	if g.workers == 1 || len(runes) < 2 {
		return walk(ctx, make([]rune, 0, len(runes)), runes, sink)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := range runes {
		prefix := make([]rune, 1, len(runes))
		prefix[0] = runes[i]
		rest := without(runes, i)
		eg.Go(func() error {
			return walk(ctx, prefix, rest, sink)
		})
	}
	return eg.Wait()
}

type walkFunc func(ctx context.Context, prefix, rest []rune, sink Sink) error

func (g *Generator) walker(n int) walkFunc {
	switch g.strategy {
	case StrategyRecursive:
		return g.recurse
	case StrategyIterative:
		return g.iterate
	}
	if n > MaxRecursiveDepth {
		return g.iterate
	}
	return g.recurse
}

// recurse is the reference enumeration. prefix must have capacity for the
// full arrangement; siblings reuse its backing array one after another.
func (g *Generator) recurse(ctx context.Context, prefix, rest []rune, sink Sink) error {
	if len(rest) == 0 {
		return g.emit(ctx, prefix, sink)
	}
	for i := range rest {
		if err := g.recurse(ctx, append(prefix, rest[i]), without(rest, i), sink); err != nil {
			return err
		}
	}
	return nil
}

// frame is one level of the explicit stack: the remainder at that level and
// the index of the next rune to choose from it.
type frame struct {
	rest []rune
	next int
}

// iterate visits arrangements in exactly the order recurse does, without
// growing the call stack.
func (g *Generator) iterate(ctx context.Context, prefix, rest []rune, sink Sink) error {
	stack := []frame{{rest: rest}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if len(top.rest) == 0 {
			if err := g.emit(ctx, prefix, sink); err != nil {
				return err
			}
		} else if top.next < len(top.rest) {
			i := top.next
			top.next++
			prefix = append(prefix, top.rest[i])
			stack = append(stack, frame{rest: without(top.rest, i)})
			continue
		}

		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return nil
}

func (g *Generator) emit(ctx context.Context, prefix []rune, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.candidates.Add(1)
	arrangement := string(prefix)
	if _, err := sink.Consider(ctx, arrangement); err != nil {
		return fmt.Errorf("consider arrangement %q: %w", arrangement, err)
	}
	return nil
}

// without returns a copy of runes with index i removed.
func without(runes []rune, i int) []rune {
	out := make([]rune, 0, len(runes)-1)
	out = append(out, runes[:i]...)
	return append(out, runes[i+1:]...)
}
