package ephemeral

import (
	"context"
	"io"
	"io/fs"
	"slices"
	"testing"

	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
	"github.com/mwantia/cellfs/mount/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEphemeralHandler_StatAndOpen(t *testing.T) {
	ctx := t.Context()
	h := NewEphemeralHandler()
	require.NoError(t, h.WriteFile("sub/b.txt", []byte("hello")))

	stat, err := h.Stat(ctx, "sub/b.txt")
	require.NoError(t, err)
	assert.True(t, stat.IsFile())
	assert.Equal(t, uint64(5), stat.Size)

	stat, err = h.Stat(ctx, "sub")
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	rc, err := h.Open(ctx, "sub/b.txt")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestEphemeralHandler_WriteCopiesContent(t *testing.T) {
	h := NewEphemeralHandler()
	content := []byte("abc")
	require.NoError(t, h.WriteFile("a", content))
	content[0] = 'x'

	rc, err := h.Open(t.Context(), "a")
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "abc", string(got))
}

func TestEphemeralHandler_Errors(t *testing.T) {
	ctx := t.Context()
	h := NewEphemeralHandler()
	require.NoError(t, h.WriteFile("a.txt", nil))
	require.NoError(t, h.Mkdir("dir"))

	_, err := h.Stat(ctx, "missing")
	assert.ErrorIs(t, err, data.ErrHandler)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = h.Open(ctx, "dir")
	assert.ErrorIs(t, err, data.ErrIsDirectory)

	_, err = h.ReadDir(ctx, "a.txt")
	assert.ErrorIs(t, err, data.ErrNotDirectory)

	assert.ErrorIs(t, h.WriteFile("bad\xff", nil), data.ErrInvalidPath)
}

func TestEphemeralHandler_ReadDir(t *testing.T) {
	ctx := t.Context()
	h := NewEphemeralHandler()
	require.NoError(t, h.WriteFile("a.txt", nil))
	require.NoError(t, h.WriteFile("sub/b.txt", nil))
	require.NoError(t, h.WriteFile("sub/c/d.txt", nil))
	require.NoError(t, h.Mkdir("empty"))

	names, err := h.ReadDir(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "sub", "empty"}, slices.Collect(names))

	names, err = h.ReadDir(ctx, "sub")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.txt", "c"}, slices.Collect(names))

	names, err = h.ReadDir(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(names))
}

func TestEphemeralHandler_ExistsAndRemove(t *testing.T) {
	ctx := t.Context()
	h := NewEphemeralHandler()
	require.NoError(t, h.WriteFile("sub/b.txt", nil))

	assert.True(t, h.Exists(ctx, ""))
	assert.True(t, h.Exists(ctx, "sub"))
	assert.True(t, h.Exists(ctx, "sub/b.txt"))

	assert.True(t, h.Remove("sub/b.txt"))
	assert.False(t, h.Exists(ctx, "sub"))

	require.NoError(t, h.WriteFile("x", nil))
	require.NoError(t, h.Close())
	assert.False(t, h.Exists(ctx, "x"))
}

func TestEphemeralHandler_Conformance(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) (backend.Handler, backendtest.StoreFunc) {
		h := NewEphemeralHandler()
		return h, func(_ context.Context, key string, content []byte) error {
			return h.WriteFile(key, content)
		}
	})
}
