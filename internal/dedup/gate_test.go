package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uniqperm/internal/shard"
)

func newTestGate(t *testing.T, width int) (*Gate, *shard.Store, *shard.Registry) {
	t.Helper()
	store := shard.NewStore(t.TempDir(), "")
	registry := shard.NewRegistry()
	return NewGate(store, shard.NewKeyer(width), registry), store, registry
}

func readShard(t *testing.T, store *shard.Store, key string) []string {
	t.Helper()
	data, err := os.ReadFile(store.Path(key))
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestConsider_CommitsNewArrangement(t *testing.T) {
	g, store, registry := newTestGate(t, 1)

	committed, err := g.Consider(context.Background(), "ab")
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, []string{""}, registry.Keys())
	assert.Equal(t, []string{"ab"}, readShard(t, store, ""))
}

func TestConsider_Idempotent(t *testing.T) {
	g, store, _ := newTestGate(t, 1)
	ctx := context.Background()

	first, err := g.Consider(ctx, "aab")
	require.NoError(t, err)
	second, err := g.Consider(ctx, "aab")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, []string{"aab"}, readShard(t, store, ""))
	assert.Equal(t, Stats{Considered: 2, Committed: 1, Duplicates: 1}, g.Stats())
}

func TestConsider_RoutesByPrefix(t *testing.T) {
	g, store, registry := newTestGate(t, 2)
	ctx := context.Background()

	for _, a := range []string{"abc", "acb", "bac", "abc"} {
		_, err := g.Consider(ctx, a)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"ab", "ac", "ba"}, registry.Keys())
	assert.Equal(t, []string{"abc"}, readShard(t, store, "ab"))
	assert.Equal(t, []string{"bac"}, readShard(t, store, "ba"))
}

func TestConsider_ShardIOErrorIsFatal(t *testing.T) {
	g, store, registry := newTestGate(t, 1)
	require.NoError(t, os.Mkdir(store.Path(""), 0o755))

	committed, err := g.Consider(context.Background(), "ab")
	require.Error(t, err)
	assert.False(t, committed)
	assert.True(t, shard.IsIOError(err))
	assert.Equal(t, 0, registry.Len())
}

func TestConsider_CanceledContext(t *testing.T) {
	g, store, _ := newTestGate(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Consider(ctx, "ab")
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(store.Path(""))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConsider_ConcurrentProducersSameKey(t *testing.T) {
	g, store, _ := newTestGate(t, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := g.Consider(ctx, fmt.Sprintf("xy%02d", i))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	lines := readShard(t, store, "xy")
	assert.Len(t, lines, 20)
	seen := make(map[string]bool)
	for _, line := range lines {
		assert.False(t, seen[line], "duplicate line %q", line)
		seen[line] = true
	}
	stats := g.Stats()
	assert.Equal(t, int64(160), stats.Considered)
	assert.Equal(t, int64(20), stats.Committed)
}

func TestConsider_ExistingShardFromEarlierRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SHARD_"), []byte("ab\n"), 0o644))
	store := shard.NewStore(dir, "")
	registry := shard.NewRegistry()
	g := NewGate(store, shard.NewKeyer(1), registry)

	committed, err := g.Consider(context.Background(), "ab")
	require.NoError(t, err)
	assert.False(t, committed)

	committed, err = g.Consider(context.Background(), "ba")
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, []string{""}, registry.Keys())
}
