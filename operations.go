package cellfs

import (
	"context"
	"io"

	"github.com/mwantia/cellfs/data"
)

// Exists reports whether any mount covering path has an object there.
// Handler failures count as absence. Like every lookup, path is cleaned
// first, so ".." components are resolved before mounts are matched.
func (cfs *CellFileSystem) Exists(ctx context.Context, path string) bool {
	path = data.CleanPath(path)

	cfs.mu.RLock()
	defer cfs.mu.RUnlock()

	_, found := cfs.resolve(ctx, path)
	return found
}

// ReadDir returns the union of the listings of every mount that covers path
// and has a directory there. Names are unique per directory; where several
// mounts list the same name the entry of the highest priority mount is kept.
// Mounts whose listing fails are skipped. The result is never nil.
func (cfs *CellFileSystem) ReadDir(ctx context.Context, path string) []*data.DirEntry {
	path = data.CleanPath(path)

	cfs.mu.RLock()
	defer cfs.mu.RUnlock()

	entries := make([]*data.DirEntry, 0)
	seen := make(map[data.DirEntryKey]struct{})

	for mp := range cfs.search(ctx, path, true) {
		rd, err := mp.ReadDir(ctx, path)
		if err != nil {
			cfs.log.Debug("Skipping %s while listing '%s': %v", mp, path, err)
			continue
		}

		for entry := range rd.All() {
			key := entry.Key()
			if _, exists := seen[key]; exists {
				continue
			}

			seen[key] = struct{}{}
			entries = append(entries, entry)
		}
	}

	return entries
}

// Open opens path on the highest priority mount that has an object there.
// It fails with data.ErrNotFound if no mount does; errors of the chosen
// handler are returned unchanged.
func (cfs *CellFileSystem) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	path = data.CleanPath(path)

	cfs.mu.RLock()
	defer cfs.mu.RUnlock()

	mp, found := cfs.resolve(ctx, path)
	if !found {
		cfs.log.Debug("No mount resolves '%s'", path)
		return nil, data.NotFound(path)
	}

	return mp.Open(ctx, path)
}

// Stat describes path as seen by the highest priority mount that has an
// object there. Failures are reported like Open.
func (cfs *CellFileSystem) Stat(ctx context.Context, path string) (*data.Stat, error) {
	path = data.CleanPath(path)

	cfs.mu.RLock()
	defer cfs.mu.RUnlock()

	mp, found := cfs.resolve(ctx, path)
	if !found {
		cfs.log.Debug("No mount resolves '%s'", path)
		return nil, data.NotFound(path)
	}

	return mp.Stat(ctx, path)
}

// ReadFile opens path and reads it to the end.
func (cfs *CellFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	rc, err := cfs.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
