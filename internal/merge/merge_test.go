package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uniqperm/internal/shard"
)

func seed(t *testing.T, store *shard.Store, registry *shard.Registry, key string, lines ...string) {
	t.Helper()
	for _, line := range lines {
		_, err := store.Append(key, line)
		require.NoError(t, err)
	}
	registry.Add(key)
}

func TestMerge_ConcatenatesAndDeletesShards(t *testing.T) {
	dir := t.TempDir()
	store := shard.NewStore(dir, "")
	registry := shard.NewRegistry()
	seed(t, store, registry, "ba", "bac", "bca")
	seed(t, store, registry, "ab", "abc", "acb")

	artifact := filepath.Join(dir, "out.txt")
	res, err := New(store, registry, nil).Merge(context.Background(), artifact)
	require.NoError(t, err)

	assert.Equal(t, Result{Artifact: artifact, Lines: 4, Shards: 2}, res)
	data, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, "abc\nacb\nbac\nbca\n", string(data))

	for _, key := range []string{"ab", "ba"} {
		_, err := os.Stat(store.Path(key))
		assert.True(t, os.IsNotExist(err), "shard %q should be deleted", key)
	}
	assert.Equal(t, 0, registry.Len())
}

func TestMerge_EmptyArrangementLine(t *testing.T) {
	dir := t.TempDir()
	store := shard.NewStore(dir, "")
	registry := shard.NewRegistry()
	seed(t, store, registry, "", "")

	artifact := filepath.Join(dir, "out.txt")
	res, err := New(store, registry, nil).Merge(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Lines)

	data, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(data))
}

func TestMerge_NoShards(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "out.txt")

	res, err := New(shard.NewStore(dir, ""), shard.NewRegistry(), nil).Merge(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Shards)

	info, err := os.Stat(artifact)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestMerge_MissingShardLeavesRemaining(t *testing.T) {
	dir := t.TempDir()
	store := shard.NewStore(dir, "")
	registry := shard.NewRegistry()
	seed(t, store, registry, "aa", "aab")
	registry.Add("ab") // registered but never written
	seed(t, store, registry, "ba", "baa")

	res, err := New(store, registry, nil).Merge(context.Background(), filepath.Join(dir, "out.txt"))
	require.Error(t, err)
	assert.True(t, shard.IsIOError(err))
	assert.Equal(t, 1, res.Shards)

	_, err = os.Stat(store.Path("aa"))
	assert.True(t, os.IsNotExist(err), "merged shard stays deleted")
	_, err = os.Stat(store.Path("ba"))
	assert.NoError(t, err, "unmerged shard is left for the operator")
}

func TestMerge_ArtifactCreateFailure(t *testing.T) {
	dir := t.TempDir()
	store := shard.NewStore(dir, "")
	registry := shard.NewRegistry()
	seed(t, store, registry, "", "ab")

	_, err := New(store, registry, nil).Merge(context.Background(), filepath.Join(dir, "missing", "out.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create artifact")

	_, err = os.Stat(store.Path(""))
	assert.NoError(t, err, "shards survive a failed merge")
}

func TestMerge_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	store := shard.NewStore(dir, "")
	registry := shard.NewRegistry()
	seed(t, store, registry, "", "ab")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(store, registry, nil).Merge(ctx, filepath.Join(dir, "out.txt"))
	assert.ErrorIs(t, err, context.Canceled)
}
