package direct

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("direct a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("direct b"), 0o444))

	return root
}

func TestDirectHandler_Stat(t *testing.T) {
	ctx := t.Context()
	h := NewDirectHandler(newTestTree(t))

	stat, err := h.Stat(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, stat.IsFile())
	assert.Equal(t, uint64(8), stat.Size)
	assert.True(t, stat.Permissions.Read)
	assert.True(t, stat.Permissions.Write)

	stat, err = h.Stat(ctx, "sub/b.txt")
	require.NoError(t, err)
	assert.True(t, stat.Permissions.ReadOnly())

	stat, err = h.Stat(ctx, "")
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
	assert.Equal(t, uint64(0), stat.Size)

	_, err = h.Stat(ctx, "missing")
	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, data.KindIO, data.KindOf(err))
}

func TestDirectHandler_ReadDir(t *testing.T) {
	h := NewDirectHandler(newTestTree(t))

	names, err := h.ReadDir(t.Context(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "sub"}, slices.Collect(names))

	_, err = h.ReadDir(t.Context(), "missing")
	assert.Error(t, err)
}

func TestDirectHandler_Open(t *testing.T) {
	h := NewDirectHandler(newTestTree(t))

	rc, err := h.Open(t.Context(), "sub/b.txt")
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "direct b", string(content))
}

func TestDirectHandler_CannotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("x"), 0o644))
	root := filepath.Join(parent, "root")
	require.NoError(t, os.Mkdir(root, 0o755))

	h := NewDirectHandler(root)
	assert.False(t, h.Exists(t.Context(), "../secret.txt"))
	assert.Equal(t, filepath.Join(root, "secret.txt"), h.resolvePath("../secret.txt"))
}

func TestDirectHandler_Exists(t *testing.T) {
	ctx := t.Context()
	h := NewDirectHandler(newTestTree(t))

	assert.True(t, backend.Exists(ctx, h, ""))
	assert.True(t, backend.Exists(ctx, h, "sub"))
	assert.True(t, backend.Exists(ctx, h, "sub/b.txt"))
	assert.False(t, backend.Exists(ctx, h, "sub/c.txt"))
}
