package data

import (
	"iter"

	"github.com/google/uuid"
)

// DirEntry is a single child of a listed directory.
type DirEntry struct {
	// Directory that was listed
	Dir string `json:"dir"`
	// Name of the child, never containing a separator
	Name string `json:"name"`
	// Mount point that provided this entry
	MountID uuid.UUID `json:"mount_id"`
}

// DirEntryKey identifies an entry independently of the mount that provided it.
type DirEntryKey struct {
	Dir  string
	Name string
}

// Path returns the full path of the entry.
func (de *DirEntry) Path() string {
	return JoinPath(de.Dir, de.Name)
}

func (de *DirEntry) Key() DirEntryKey {
	return DirEntryKey{
		Dir:  de.Dir,
		Name: de.Name,
	}
}

func (de *DirEntry) String() string {
	return de.Path()
}

// ReadDir pairs the raw name sequence of a handler with the directory it was
// read from. The sequence is consumed at most once.
type ReadDir struct {
	dir      string
	mountID  uuid.UUID
	names    iter.Seq[string]
	consumed bool
}

func NewReadDir(dir string, mountID uuid.UUID, names iter.Seq[string]) *ReadDir {
	return &ReadDir{
		dir:     dir,
		mountID: mountID,
		names:   names,
	}
}

func (rd *ReadDir) Dir() string {
	return rd.dir
}

// All yields an entry for every name. Later calls yield nothing.
func (rd *ReadDir) All() iter.Seq[*DirEntry] {
	return func(yield func(*DirEntry) bool) {
		if rd.consumed || rd.names == nil {
			return
		}
		rd.consumed = true

		for name := range rd.names {
			entry := &DirEntry{
				Dir:     rd.dir,
				Name:    name,
				MountID: rd.mountID,
			}
			if !yield(entry) {
				return
			}
		}
	}
}
