package archive

import (
	"context"
	"io"
	"io/fs"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
)

// index answers the read requests for an archive whose entries are known
// up front. The entries never change after construction.
type index[V any] struct {
	name    string
	entries *backend.Keyspace[V]
	size    func(V) uint64
	open    func(V) (io.ReadCloser, error)
}

func newIndex[V any](name string, size func(V) uint64, open func(V) (io.ReadCloser, error)) *index[V] {
	return &index[V]{
		name:    name,
		entries: backend.NewKeyspace[V](),
		size:    size,
		open:    open,
	}
}

// add registers one archive entry. Names ending with a separator mark
// directories; names that are not valid UTF-8 cannot be addressed and are
// skipped.
func (idx *index[V]) add(name string, value V, dir bool) {
	if !utf8.ValidString(name) {
		return
	}

	if dir || strings.HasSuffix(name, data.Separator) {
		idx.entries.SetDir(name)
		return
	}

	idx.entries.Set(name, value)
}

func (idx *index[V]) lookup(op, path string) (V, data.FileType, error) {
	var zero V
	if err := data.ValidatePath(path); err != nil {
		return zero, data.FileTypeFile, err
	}

	value, fileType, exists := idx.entries.Lookup(path)
	if !exists {
		return zero, fileType, data.NewHandlerError(idx.name, op, path, fs.ErrNotExist)
	}

	return value, fileType, nil
}

func (idx *index[V]) Stat(ctx context.Context, path string) (*data.Stat, error) {
	value, fileType, err := idx.lookup("stat", path)
	if err != nil {
		return nil, err
	}

	if fileType == data.FileTypeDirectory {
		return data.NewDirectoryStat(data.PermissionsReadOnly), nil
	}

	return data.NewFileStat(idx.size(value), data.PermissionsReadOnly), nil
}

func (idx *index[V]) Exists(ctx context.Context, path string) bool {
	_, _, err := idx.lookup("exists", path)
	return err == nil
}

// ReadDir yields the distinct first segments below path in sorted order.
func (idx *index[V]) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	_, fileType, err := idx.lookup("readdir", path)
	if err != nil {
		return nil, err
	}
	if fileType != data.FileTypeDirectory {
		return nil, data.NewHandlerError(idx.name, "readdir", path, data.ErrNotDirectory)
	}

	names := slices.Sorted(idx.entries.Children(path))
	return slices.Values(names), nil
}

func (idx *index[V]) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	value, fileType, err := idx.lookup("open", path)
	if err != nil {
		return nil, err
	}
	if fileType == data.FileTypeDirectory {
		return nil, data.NewHandlerError(idx.name, "open", path, data.ErrIsDirectory)
	}

	rc, err := idx.open(value)
	if err != nil {
		return nil, data.NewHandlerError(idx.name, "open", path, err)
	}

	return rc, nil
}
