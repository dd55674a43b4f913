package cellfs

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/cellfs/data"
	"github.com/mwantia/cellfs/log"
	"github.com/mwantia/cellfs/mount"
	"github.com/mwantia/cellfs/mount/backend"
)

// CellFileSystem assembles a single namespace from handlers attached at
// mount paths. Mounts are kept in insertion order; a later mount shadows
// earlier ones wherever both cover a path.
type CellFileSystem struct {
	mu     sync.RWMutex
	mounts []*mount.MountPoint

	log        *log.Logger
	ownsLogger bool
}

func NewCellFileSystem(opts ...CellFileSystemOption) (*CellFileSystem, error) {
	options := newDefaultCellFileSystemOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	ownsLogger := false
	if logger == nil {
		logger = log.NewLogger("cellfs", options.LogLevel, options.LogFile, options.NoTerminalLog)
		logger.JSON = options.JSONLog
		ownsLogger = true
	}

	return &CellFileSystem{
		mounts:     make([]*mount.MountPoint, 0),
		log:        logger,
		ownsLogger: ownsLogger,
	}, nil
}

// Mount attaches handler at path with the highest priority and returns the
// identifier of the new mount. The path is used as given; mounts may share
// or nest paths.
func (cfs *CellFileSystem) Mount(path string, handler backend.Handler, opts ...mount.MountOption) uuid.UUID {
	cfs.mu.Lock()
	defer cfs.mu.Unlock()

	mp := mount.NewMountPoint(path, handler, opts...)
	cfs.mounts = append(cfs.mounts, mp)

	cfs.log.Info("Mounted %s at '%s' (%s)", mp.Name(), path, mp.ID())
	return mp.ID()
}

// Unmount removes the mount with the given identifier. Unknown identifiers
// are ignored. The handler is not closed, so streams it returned earlier
// stay usable.
func (cfs *CellFileSystem) Unmount(id uuid.UUID) {
	cfs.mu.Lock()
	defer cfs.mu.Unlock()

	index := slices.IndexFunc(cfs.mounts, func(mp *mount.MountPoint) bool {
		return mp.ID() == id
	})
	if index < 0 {
		cfs.log.Debug("Unmount of unknown mount %s ignored", id)
		return
	}

	mp := cfs.mounts[index]
	cfs.mounts = slices.Delete(cfs.mounts, index, index+1)

	cfs.log.Info("Unmounted %s from '%s' (%s)", mp.Name(), mp.Path(), id)
}

// Mounts returns a snapshot of the mount table, lowest priority first.
func (cfs *CellFileSystem) Mounts() []mount.MountInfo {
	cfs.mu.RLock()
	defer cfs.mu.RUnlock()

	infos := make([]mount.MountInfo, 0, len(cfs.mounts))
	for _, mp := range cfs.mounts {
		infos = append(infos, mp.Info())
	}

	return infos
}

// Covering returns the mounts whose path is a component prefix of path,
// highest priority first, whether or not they hold an object there.
func (cfs *CellFileSystem) Covering(path string) []mount.MountInfo {
	cfs.mu.RLock()
	defer cfs.mu.RUnlock()

	infos := make([]mount.MountInfo, 0)
	for mp := range cfs.search(context.Background(), data.CleanPath(path), false) {
		infos = append(infos, mp.Info())
	}

	return infos
}

// Shutdown empties the mount table and closes every handler that holds
// resources. Errors of individual handlers are joined.
func (cfs *CellFileSystem) Shutdown(ctx context.Context) error {
	cfs.mu.Lock()
	defer cfs.mu.Unlock()

	var errs data.Errors
	for _, mp := range cfs.mounts {
		if err := mp.Close(); err != nil {
			cfs.log.Warn("Failed to close %s: %v", mp, err)
			errs.Add(err)
		}
	}

	cfs.mounts = make([]*mount.MountPoint, 0)
	cfs.log.Info("Shutdown completed")

	if cfs.ownsLogger {
		errs.Add(cfs.log.Close())
	}

	return errs.Errors()
}
