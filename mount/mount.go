package mount

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/mount/backend"
)

// MountPoint binds a handler to a mount path. It translates absolute logical
// paths into handler relative paths and forwards every request to the handler
// it exclusively owns.
type MountPoint struct {
	id        uuid.UUID
	path      string
	label     string
	handler   backend.Handler
	mountTime time.Time
}

// MountInfo is a snapshot describing a mount point.
type MountInfo struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	Handler   string    `json:"handler"`
	Label     string    `json:"label,omitempty"`
	MountTime time.Time `json:"mount_time"`
}

func NewMountPoint(path string, handler backend.Handler, opts ...MountOption) *MountPoint {
	options := newDefaultMountOptions()
	for _, opt := range opts {
		opt(options)
	}

	id := options.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &MountPoint{
		id:        id,
		path:      path,
		label:     options.Label,
		handler:   handler,
		mountTime: time.Now(),
	}
}

func (mp *MountPoint) ID() uuid.UUID {
	return mp.id
}

func (mp *MountPoint) Path() string {
	return mp.path
}

// Name returns the name of the underlying handler.
func (mp *MountPoint) Name() string {
	return mp.handler.Name()
}

func (mp *MountPoint) Info() MountInfo {
	return MountInfo{
		ID:        mp.id,
		Path:      mp.path,
		Handler:   mp.handler.Name(),
		Label:     mp.label,
		MountTime: mp.mountTime,
	}
}

func (mp *MountPoint) String() string {
	if mp.label != "" {
		return mp.label + "@" + mp.path
	}
	return mp.handler.Name() + "@" + mp.path
}

// Resolve strips the mount path from path. It returns false if the mount
// path is not a component prefix of path.
func (mp *MountPoint) Resolve(path string) (string, bool) {
	return data.StripPrefix(path, mp.path)
}

func (mp *MountPoint) Stat(ctx context.Context, path string) (*data.Stat, error) {
	rel, ok := mp.Resolve(path)
	if !ok {
		return nil, data.NotFound(path)
	}

	return mp.handler.Stat(ctx, rel)
}

func (mp *MountPoint) Exists(ctx context.Context, path string) bool {
	rel, ok := mp.Resolve(path)
	if !ok {
		return false
	}

	return backend.Exists(ctx, mp.handler, rel)
}

// ReadDir lists path and pairs the names with path, so every entry can
// build its full logical path.
func (mp *MountPoint) ReadDir(ctx context.Context, path string) (*data.ReadDir, error) {
	rel, ok := mp.Resolve(path)
	if !ok {
		return nil, data.NotFound(path)
	}

	names, err := mp.handler.ReadDir(ctx, rel)
	if err != nil {
		return nil, err
	}

	return data.NewReadDir(path, mp.id, names), nil
}

func (mp *MountPoint) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	rel, ok := mp.Resolve(path)
	if !ok {
		return nil, data.NotFound(path)
	}

	return mp.handler.Open(ctx, rel)
}

// Close releases the handler if it holds any resources.
func (mp *MountPoint) Close() error {
	if closer, ok := mp.handler.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
