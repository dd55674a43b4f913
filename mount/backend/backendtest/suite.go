// Package backendtest runs a shared conformance suite against keyed object
// handlers that can be seeded with content.
package backendtest

import (
	"context"
	"io"
	"slices"
	"testing"

	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFunc writes content at key into the handler under test.
type StoreFunc func(ctx context.Context, key string, content []byte) error

// Factory creates a fresh, empty handler together with its store function.
type Factory func(t *testing.T) (backend.Handler, StoreFunc)

// Objects is the tree every handler is seeded with.
var Objects = map[string]string{
	"a.txt":            "content a",
	"sub/b.txt":        "content b",
	"sub/deep/c.txt":   "content c",
	"subway/d.txt":     "content d",
	"other/sub/e.json": `{"e":true}`,
}

// Run seeds a handler created by factory and verifies its read behaviour.
func Run(t *testing.T, factory Factory) {
	ctx := t.Context()
	handler, store := factory(t)

	for key, content := range Objects {
		require.NoError(t, store(ctx, key, []byte(content)), key)
	}

	t.Run("Stat", func(t *testing.T) {
		for key, content := range Objects {
			stat, err := handler.Stat(ctx, key)
			require.NoError(t, err, key)
			assert.True(t, stat.IsFile(), key)
			assert.Equal(t, uint64(len(content)), stat.Size, key)
		}

		for _, dir := range []string{"", "sub", "sub/deep", "other/sub"} {
			stat, err := handler.Stat(ctx, dir)
			require.NoError(t, err, dir)
			assert.True(t, stat.IsDir(), dir)
		}

		_, err := handler.Stat(ctx, "missing.txt")
		assert.ErrorIs(t, err, data.ErrHandler)
		assert.Equal(t, data.KindHandler, data.KindOf(err))
	})

	t.Run("Exists", func(t *testing.T) {
		assert.True(t, backend.Exists(ctx, handler, ""))
		assert.True(t, backend.Exists(ctx, handler, "sub"))
		assert.True(t, backend.Exists(ctx, handler, "sub/deep/c.txt"))
		assert.False(t, backend.Exists(ctx, handler, "su"))
		assert.False(t, backend.Exists(ctx, handler, "sub/missing"))
	})

	t.Run("ReadDir", func(t *testing.T) {
		expected := map[string][]string{
			"":          {"a.txt", "other", "sub", "subway"},
			"sub":       {"b.txt", "deep"},
			"sub/deep":  {"c.txt"},
			"other":     {"sub"},
			"other/sub": {"e.json"},
		}

		for dir, names := range expected {
			seq, err := handler.ReadDir(ctx, dir)
			require.NoError(t, err, dir)
			assert.ElementsMatch(t, names, slices.Collect(seq), dir)
		}

		_, err := handler.ReadDir(ctx, "missing")
		assert.Error(t, err)
	})

	t.Run("Open", func(t *testing.T) {
		for key, content := range Objects {
			rc, err := handler.Open(ctx, key)
			require.NoError(t, err, key)

			got, err := io.ReadAll(rc)
			require.NoError(t, err, key)
			require.NoError(t, rc.Close())
			assert.Equal(t, content, string(got), key)
		}

		_, err := handler.Open(ctx, "missing.txt")
		assert.ErrorIs(t, err, data.ErrHandler)
	})
}
