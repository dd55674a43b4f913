package backend

import (
	"context"
	"io"
	"iter"

	"github.com/mwantia/cellfs/data"
)

// Handler is the capability set every backend provides to its mount point.
// All paths passed to a Handler are relative to the mount point: slash
// separated and without leading separator. The empty path addresses the root.
type Handler interface {
	// Name returns the identifier name defined for this handler
	Name() string

	// Stat returns type, permissions and size of the object at path.
	Stat(ctx context.Context, path string) (*data.Stat, error)

	// ReadDir returns the names (not paths) of the immediate children of path.
	// The sequence is lazy, finite and may only be iterated once.
	ReadDir(ctx context.Context, path string) (iter.Seq[string], error)

	// Open returns a stream positioned at the start of the file at path.
	// The stream is owned by the caller and must be closed.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Exister is implemented by handlers that can answer existence checks
// cheaper than a full Stat.
type Exister interface {
	Exists(ctx context.Context, path string) bool
}

// Exists uses the handler's own existence check if it implements Exister
// and otherwise reports whether Stat succeeds.
func Exists(ctx context.Context, h Handler, path string) bool {
	if exister, ok := h.(Exister); ok {
		return exister.Exists(ctx, path)
	}

	_, err := h.Stat(ctx, path)
	return err == nil
}
