package perm

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// collector records every arrangement it is handed.
type collector struct {
	mu   sync.Mutex
	seen []string
}

func (c *collector) Consider(_ context.Context, arrangement string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, arrangement)
	return true, nil
}

func (c *collector) sorted() []string {
	out := append([]string(nil), c.seen...)
	sort.Strings(out)
	return out
}

func generate(t *testing.T, strategy Strategy, workers int, input string) *collector {
	t.Helper()
	c := &collector{}
	require.NoError(t, New(strategy, workers).Generate(context.Background(), input, c))
	return c
}

func TestGenerate_ReferenceOrder(t *testing.T) {
	c := generate(t, StrategyRecursive, 1, "abc")
	assert.Equal(t, []string{"abc", "acb", "bac", "bca", "cab", "cba"}, c.seen)
}

func TestGenerate_RepeatedRunesYieldDuplicates(t *testing.T) {
	c := generate(t, StrategyRecursive, 1, "aab")
	assert.Equal(t, []string{"aab", "aba", "aab", "aba", "baa", "baa"}, c.seen)
}

func TestGenerate_EdgeCases(t *testing.T) {
	for _, strategy := range ValidStrategies {
		t.Run(string(strategy), func(t *testing.T) {
			assert.Equal(t, []string{""}, generate(t, strategy, 1, "").seen)
			assert.Equal(t, []string{"x"}, generate(t, strategy, 1, "x").seen)

			same := generate(t, strategy, 1, "aaaa").seen
			assert.Len(t, same, 24)
			for _, a := range same {
				assert.Equal(t, "aaaa", a)
			}
		})
	}
}

func TestGenerate_IterativeMatchesRecursive(t *testing.T) {
	for _, input := range []string{"", "a", "ab", "abc", "aab", "abcd", "mississ", "héllo"} {
		t.Run(input, func(t *testing.T) {
			rec := generate(t, StrategyRecursive, 1, input).seen
			it := generate(t, StrategyIterative, 1, input).seen
			if diff := cmp.Diff(rec, it); diff != "" {
				t.Errorf("iterative order differs from recursive (-recursive +iterative):\n%s", diff)
			}
		})
	}
}

func TestGenerate_ParallelSameMultiset(t *testing.T) {
	for _, strategy := range []Strategy{StrategyRecursive, StrategyIterative} {
		t.Run(string(strategy), func(t *testing.T) {
			seq := generate(t, strategy, 1, "abcde").sorted()
			par := generate(t, strategy, 4, "abcde").sorted()
			if diff := cmp.Diff(seq, par); diff != "" {
				t.Errorf("parallel enumeration differs (-sequential +parallel):\n%s", diff)
			}
		})
	}
}

func TestGenerate_Candidates(t *testing.T) {
	g := New(StrategyAuto, 1)
	require.NoError(t, g.Generate(context.Background(), "abcd", &collector{}))
	assert.Equal(t, int64(24), g.Candidates())
}

func TestGenerate_SinkErrorAborts(t *testing.T) {
	boom := errors.New("disk full")
	for _, workers := range []int{1, 3} {
		calls := 0
		var mu sync.Mutex
		sink := SinkFunc(func(ctx context.Context, a string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 3 {
				return false, boom
			}
			return true, nil
		})

		err := New(StrategyIterative, workers).Generate(context.Background(), "abcdef", sink)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Less(t, calls, 720, "generation must stop after the failure")
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(StrategyRecursive, 1).Generate(ctx, "abc", &collector{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_LongInputStopsOnCancel(t *testing.T) {
	g := New(StrategyAuto, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := strings.Repeat("a", MaxRecursiveDepth+1)
	first := ""
	sink := SinkFunc(func(ctx context.Context, a string) (bool, error) {
		first = a
		cancel()
		return true, nil
	})
	err := g.Generate(ctx, input, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, input, first)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAuto, s)

	s, err = ParseStrategy("iterative")
	require.NoError(t, err)
	assert.Equal(t, StrategyIterative, s)

	_, err = ParseStrategy("random")
	assert.Error(t, err)
}

func TestDistinctCount(t *testing.T) {
	tests := map[string]int64{
		"":            1,
		"a":           1,
		"ab":          2,
		"aab":         3,
		"abcd":        24,
		"aaaa":        1,
		"mississippi": 34650,
	}
	for input, want := range tests {
		assert.Equal(t, want, DistinctCount(input).Int64(), "input %q", input)
	}
	assert.Equal(t, int64(6), CandidateCount("aab").Int64())
	assert.Equal(t, int64(1), CandidateCount("").Int64())
}
