package cellfs

import (
	"context"
	"iter"
	"slices"

	"github.com/mwantia/cellfs/mount"
)

// search yields the mounts whose path is a component prefix of path, from
// the highest priority (latest mount) to the lowest. With exists set, only
// mounts whose handler reports that the remainder exists are yielded; without
// it the handlers are not consulted and ctx is unused.
// Must be called with at least a read lock held.
func (cfs *CellFileSystem) search(ctx context.Context, path string, exists bool) iter.Seq[*mount.MountPoint] {
	return func(yield func(*mount.MountPoint) bool) {
		for _, mp := range slices.Backward(cfs.mounts) {
			if _, ok := mp.Resolve(path); !ok {
				continue
			}
			if exists && !mp.Exists(ctx, path) {
				continue
			}
			if !yield(mp) {
				return
			}
		}
	}
}

// resolve returns the mount answering single valued requests for path.
// Must be called with at least a read lock held.
func (cfs *CellFileSystem) resolve(ctx context.Context, path string) (*mount.MountPoint, bool) {
	for mp := range cfs.search(ctx, path, true) {
		return mp, true
	}

	return nil, false
}
