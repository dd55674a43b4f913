package cellfs_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/mwantia/cellfs"
	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/log"
	"github.com/mwantia/cellfs/mount"
	"github.com/mwantia/cellfs/mount/backend/archive"
	"github.com/mwantia/cellfs/mount/backend/direct"
	"github.com/mwantia/cellfs/mount/backend/ephemeral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileSystem(t *testing.T) *cellfs.CellFileSystem {
	t.Helper()

	cfs, err := cellfs.NewCellFileSystem(cellfs.WithLogger(log.NewWriterLogger("test", log.Debug, io.Discard)))
	require.NoError(t, err)

	return cfs
}

func newEphemeral(t *testing.T, files map[string]string) *ephemeral.EphemeralHandler {
	t.Helper()

	h := ephemeral.NewEphemeralHandler()
	for key, content := range files {
		require.NoError(t, h.WriteFile(key, []byte(content)))
	}

	return h
}

func names(entries []*data.DirEntry) []string {
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.Name)
	}

	return result
}

// brokenHandler claims every path but fails to list or open anything.
type brokenHandler struct{}

var errBroken = errors.New("broken handler")

func (brokenHandler) Name() string { return "broken" }

func (brokenHandler) Exists(ctx context.Context, path string) bool { return true }

func (brokenHandler) Stat(ctx context.Context, path string) (*data.Stat, error) {
	return nil, data.NewHandlerError("broken", "stat", path, errBroken)
}

func (brokenHandler) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	return nil, data.NewHandlerError("broken", "readdir", path, errBroken)
}

func (brokenHandler) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, data.NewHandlerError("broken", "open", path, errBroken)
}

type closeRecorder struct {
	*ephemeral.EphemeralHandler
	closed int
	err    error
}

func (cr *closeRecorder) Close() error {
	cr.closed++
	return cr.err
}

func TestCellFileSystem_Exists(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	assert.False(t, cfs.Exists(ctx, "/"))

	cfs.Mount("/data", newEphemeral(t, map[string]string{"a.txt": "a"}))

	assert.True(t, cfs.Exists(ctx, "/data"))
	assert.True(t, cfs.Exists(ctx, "/data/a.txt"))
	assert.True(t, cfs.Exists(ctx, "/data//a.txt"))
	assert.False(t, cfs.Exists(ctx, "/data/b.txt"))
	assert.False(t, cfs.Exists(ctx, "/database"))
	assert.False(t, cfs.Exists(ctx, "/a.txt"))
}

func TestCellFileSystem_Shadowing(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"x.txt": "first"}))
	cfs.Mount("/", newEphemeral(t, map[string]string{"x.txt": "second"}))

	content, err := cfs.ReadFile(ctx, "/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestCellFileSystem_ShadowingSkipsMissing(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"only-first.txt": "first"}))
	cfs.Mount("/", newEphemeral(t, map[string]string{"x.txt": "second"}))

	content, err := cfs.ReadFile(ctx, "/only-first.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
}

func TestCellFileSystem_NestedMounts(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"sub/x.txt": "root"}))
	cfs.Mount("/sub", newEphemeral(t, map[string]string{"x.txt": "nested", "y.txt": "y"}))

	content, err := cfs.ReadFile(ctx, "/sub/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "nested", string(content))

	assert.ElementsMatch(t, []string{"x.txt", "y.txt"}, names(cfs.ReadDir(ctx, "/sub")))
}

func TestCellFileSystem_DotDotAcrossMounts(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"x.txt": "root", "data/y.txt": "shadowed"}))
	cfs.Mount("/data", newEphemeral(t, map[string]string{"x.txt": "data", "y.txt": "data"}))

	content, err := cfs.ReadFile(ctx, "/data/../x.txt")
	require.NoError(t, err)
	assert.Equal(t, "root", string(content))

	content, err = cfs.ReadFile(ctx, "/data/./../data/y.txt")
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	stat, err := cfs.Stat(ctx, "/data/../data")
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	assert.True(t, cfs.Exists(ctx, "/data/../x.txt"))
	assert.False(t, cfs.Exists(ctx, "/data/../y.txt"))

	_, err = cfs.Open(ctx, "/data/../y.txt")
	assert.ErrorIs(t, err, data.ErrNotFound)

	entries := cfs.ReadDir(ctx, "/data/..")
	assert.ElementsMatch(t, []string{"x.txt", "data"}, names(entries))
	for _, entry := range entries {
		assert.Equal(t, "/", entry.Dir)
	}

	assert.ElementsMatch(t, []string{"x.txt", "y.txt"}, names(cfs.ReadDir(ctx, "/../data/")))
}

func TestCellFileSystem_ReadDirUnion(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"a": "1", "b": "1"}))
	second := cfs.Mount("/", newEphemeral(t, map[string]string{"b": "2", "c": "2"}))

	entries := cfs.ReadDir(ctx, "/")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names(entries))

	for _, entry := range entries {
		assert.Equal(t, "/", entry.Dir)
		if entry.Name == "b" {
			assert.Equal(t, second, entry.MountID)
			assert.Equal(t, "/b", entry.Path())
		}
	}
}

func TestCellFileSystem_ReadDirIdempotent(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"a": "1", "sub/b": "1"}))
	cfs.Mount("/", newEphemeral(t, map[string]string{"a": "2", "c": "2"}))

	first := names(cfs.ReadDir(ctx, "/"))
	second := names(cfs.ReadDir(ctx, "/"))
	assert.ElementsMatch(t, first, second)
	assert.Len(t, first, 3)
}

func TestCellFileSystem_ReadDirEmpty(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	entries := cfs.ReadDir(ctx, "/")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	cfs.Mount("/", newEphemeral(t, map[string]string{"a.txt": "a"}))
	entries = cfs.ReadDir(ctx, "/missing")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	entries = cfs.ReadDir(ctx, "/a.txt")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestCellFileSystem_ReadDirResilience(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"a": "1", "b": "1"}))
	cfs.Mount("/", brokenHandler{})

	assert.ElementsMatch(t, []string{"a", "b"}, names(cfs.ReadDir(ctx, "/")))
}

func TestCellFileSystem_Unmount(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	cfs.Mount("/", newEphemeral(t, map[string]string{"x.txt": "first"}))
	second := cfs.Mount("/", newEphemeral(t, map[string]string{"x.txt": "second"}))

	rc, err := cfs.Open(ctx, "/x.txt")
	require.NoError(t, err)

	cfs.Unmount(second)
	cfs.Unmount(uuid.New())

	content, err := cfs.ReadFile(ctx, "/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	// Streams opened before the unmount stay readable
	content, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "second", string(content))

	require.Len(t, cfs.Mounts(), 1)
}

func TestCellFileSystem_OpenErrors(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	_, err := cfs.Open(ctx, "/nothing.txt")
	assert.ErrorIs(t, err, data.ErrNotFound)
	assert.Equal(t, data.KindNotFound, data.KindOf(err))

	cfs.Mount("/data", newEphemeral(t, map[string]string{"sub/a.txt": "a"}))

	_, err = cfs.Open(ctx, "/data/missing.txt")
	assert.Equal(t, data.KindNotFound, data.KindOf(err))

	// The mount claims the directory, so its own failure is reported
	_, err = cfs.Open(ctx, "/data/sub")
	assert.ErrorIs(t, err, data.ErrIsDirectory)
	assert.Equal(t, data.KindHandler, data.KindOf(err))

	cfs.Mount("/broken", brokenHandler{})
	_, err = cfs.Open(ctx, "/broken/file")
	assert.ErrorIs(t, err, errBroken)

	_, err = cfs.Stat(ctx, "/broken/file")
	assert.ErrorIs(t, err, errBroken)
}

func TestCellFileSystem_Mounts(t *testing.T) {
	cfs := newTestFileSystem(t)

	first := cfs.Mount("/", newEphemeral(t, nil), mount.WithLabel("base"))
	id := uuid.New()
	second := cfs.Mount("/data", newEphemeral(t, nil), mount.WithID(id))
	assert.Equal(t, id, second)

	infos := cfs.Mounts()
	require.Len(t, infos, 2)
	assert.Equal(t, first, infos[0].ID)
	assert.Equal(t, "base", infos[0].Label)
	assert.Equal(t, "/data", infos[1].Path)
	assert.Equal(t, "ephemeral", infos[1].Handler)
}

func TestCellFileSystem_Covering(t *testing.T) {
	cfs := newTestFileSystem(t)

	root := cfs.Mount("/", newEphemeral(t, nil))
	nested := cfs.Mount("/data", newEphemeral(t, nil))
	cfs.Mount("/other", newEphemeral(t, nil))
	shadow := cfs.Mount("/data", newEphemeral(t, nil))

	ids := func(infos []mount.MountInfo) []uuid.UUID {
		result := make([]uuid.UUID, 0, len(infos))
		for _, info := range infos {
			result = append(result, info.ID)
		}
		return result
	}

	assert.Equal(t, []uuid.UUID{shadow, nested, root}, ids(cfs.Covering("/data/missing.txt")))
	assert.Equal(t, []uuid.UUID{root}, ids(cfs.Covering("/data/../missing.txt")))
	assert.Equal(t, []uuid.UUID{root}, ids(cfs.Covering("/dataset")))
	assert.Empty(t, cfs.Covering("relative"))
}

func TestCellFileSystem_Shutdown(t *testing.T) {
	cfs := newTestFileSystem(t)

	failing := errors.New("close failed")
	first := &closeRecorder{EphemeralHandler: newEphemeral(t, nil)}
	second := &closeRecorder{EphemeralHandler: newEphemeral(t, nil), err: failing}
	cfs.Mount("/", first)
	cfs.Mount("/", second)
	cfs.Mount("/", brokenHandler{})

	err := cfs.Shutdown(t.Context())
	assert.ErrorIs(t, err, failing)
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed)
	assert.Empty(t, cfs.Mounts())
}

func TestCellFileSystem_EndToEnd(t *testing.T) {
	ctx := t.Context()
	cfs := newTestFileSystem(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("from direct"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("direct b"), 0o644))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"a.txt":     strings.Repeat("x", 42),
		"sub/c.txt": "archive c",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	zh, err := archive.NewZipHandlerFromReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	directID := cfs.Mount("/", direct.NewDirectHandler(root))
	zipID := cfs.Mount("/", zh)

	entries := cfs.ReadDir(ctx, "/")
	assert.ElementsMatch(t, []string{"a.txt", "sub"}, names(entries))
	for _, entry := range entries {
		assert.Equal(t, zipID, entry.MountID, entry.Name)
	}

	assert.ElementsMatch(t, []string{"b.txt", "c.txt"}, names(cfs.ReadDir(ctx, "/sub")))

	stat, err := cfs.Stat(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), stat.Size)
	assert.True(t, stat.Permissions.ReadOnly())

	content, err := cfs.ReadFile(ctx, "/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "direct b", string(content))

	content, err = cfs.ReadFile(ctx, "/sub/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "archive c", string(content))

	cfs.Unmount(zipID)
	content, err = cfs.ReadFile(ctx, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "from direct", string(content))

	entries = cfs.ReadDir(ctx, "/")
	require.NotEmpty(t, entries)
	assert.Equal(t, directID, entries[0].MountID)
	assert.True(t, slices.ContainsFunc(entries, func(e *data.DirEntry) bool { return e.Name == "sub" }))
}
