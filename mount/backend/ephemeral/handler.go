package ephemeral

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"iter"
	"slices"
	"sync"

	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
)

// EphemeralHandler keeps files in memory. Directories exist implicitly for
// every parent of a stored file or explicitly through Mkdir.
type EphemeralHandler struct {
	mu    sync.RWMutex
	files *backend.Keyspace[[]byte]
}

func NewEphemeralHandler() *EphemeralHandler {
	return &EphemeralHandler{
		files: backend.NewKeyspace[[]byte](),
	}
}

// Returns the identifier name defined for this handler
func (*EphemeralHandler) Name() string {
	return "ephemeral"
}

// WriteFile stores a copy of content at key, replacing any previous content.
func (eh *EphemeralHandler) WriteFile(key string, content []byte) error {
	key, err := backend.NormalizeKey(key)
	if err != nil {
		return err
	}

	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.files.Set(key, bytes.Clone(content))
	return nil
}

// Mkdir records an explicit directory, so it exists even while empty.
func (eh *EphemeralHandler) Mkdir(key string) error {
	key, err := backend.NormalizeKey(key)
	if err != nil {
		return err
	}

	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.files.SetDir(key)
	return nil
}

// Remove deletes the file or explicit directory at key.
func (eh *EphemeralHandler) Remove(key string) bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	return eh.files.Delete(key)
}

func (eh *EphemeralHandler) Stat(ctx context.Context, path string) (*data.Stat, error) {
	eh.mu.RLock()
	defer eh.mu.RUnlock()

	content, fileType, exists := eh.files.Lookup(path)
	if !exists {
		return nil, data.NewHandlerError(eh.Name(), "stat", path, fs.ErrNotExist)
	}

	if fileType == data.FileTypeDirectory {
		return data.NewDirectoryStat(data.PermissionsReadWrite), nil
	}

	return data.NewFileStat(uint64(len(content)), data.PermissionsReadWrite), nil
}

func (eh *EphemeralHandler) Exists(ctx context.Context, path string) bool {
	eh.mu.RLock()
	defer eh.mu.RUnlock()

	_, _, exists := eh.files.Lookup(path)
	return exists
}

// ReadDir returns a snapshot of the children, so later writes never
// interfere with an iteration in progress.
func (eh *EphemeralHandler) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	eh.mu.RLock()
	defer eh.mu.RUnlock()

	_, fileType, exists := eh.files.Lookup(path)
	if !exists {
		return nil, data.NewHandlerError(eh.Name(), "readdir", path, fs.ErrNotExist)
	}
	if fileType != data.FileTypeDirectory {
		return nil, data.NewHandlerError(eh.Name(), "readdir", path, data.ErrNotDirectory)
	}

	names := slices.Collect(eh.files.Children(path))
	return slices.Values(names), nil
}

func (eh *EphemeralHandler) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	eh.mu.RLock()
	defer eh.mu.RUnlock()

	content, fileType, exists := eh.files.Lookup(path)
	if !exists {
		return nil, data.NewHandlerError(eh.Name(), "open", path, fs.ErrNotExist)
	}
	if fileType == data.FileTypeDirectory {
		return nil, data.NewHandlerError(eh.Name(), "open", path, data.ErrIsDirectory)
	}

	// Stored content is never mutated in place, so readers can share it
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Close drops all stored files.
func (eh *EphemeralHandler) Close() error {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.files.Clear()
	return nil
}
