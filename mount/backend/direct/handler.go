package direct

import (
	"context"
	"io"
	"iter"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/mwantia/cellfs/data"
)

// DirectHandler serves a directory tree of the host filesystem.
type DirectHandler struct {
	root string
}

func NewDirectHandler(root string) *DirectHandler {
	return &DirectHandler{
		root: filepath.Clean(root),
	}
}

// Returns the identifier name defined for this handler
func (*DirectHandler) Name() string {
	return "direct"
}

func (dh *DirectHandler) Root() string {
	return dh.root
}

// resolvePath joins the root with path. Cleaning path as an absolute path
// first keeps ".." from escaping the root.
func (dh *DirectHandler) resolvePath(path string) string {
	return filepath.Join(dh.root, filepath.FromSlash(data.ToRelativePath(path)))
}

func (dh *DirectHandler) Stat(ctx context.Context, path string) (*data.Stat, error) {
	info, err := os.Stat(dh.resolvePath(path))
	if err != nil {
		return nil, err
	}

	perm := data.PermissionsFromMode(info.Mode())
	if info.IsDir() {
		return data.NewDirectoryStat(perm), nil
	}

	return data.NewFileStat(uint64(info.Size()), perm), nil
}

func (dh *DirectHandler) Exists(ctx context.Context, path string) bool {
	_, err := os.Stat(dh.resolvePath(path))
	return err == nil
}

// ReadDir reads the directory once and yields entry names lazily.
// Names that are not valid UTF-8 are skipped.
func (dh *DirectHandler) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	entries, err := os.ReadDir(dh.resolvePath(path))
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		for _, entry := range entries {
			name := entry.Name()
			if !utf8.ValidString(name) {
				continue
			}
			if !yield(name) {
				return
			}
		}
	}, nil
}

func (dh *DirectHandler) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return os.Open(dh.resolvePath(path))
}
