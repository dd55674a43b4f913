package backend

import (
	"iter"
	"strings"

	"github.com/mwantia/cellfs/data"
	"github.com/tidwall/btree"
)

// Keyspace indexes a flat set of slash separated keys, such as archive entry
// names or object keys, and answers hierarchical questions about them.
// Directories exist implicitly for every strict prefix of a key.
// A Keyspace is not safe for concurrent modification.
type Keyspace[V any] struct {
	entries *btree.Map[string, keyspaceEntry[V]]
}

type keyspaceEntry[V any] struct {
	value V
	dir   bool
}

func NewKeyspace[V any]() *Keyspace[V] {
	return &Keyspace[V]{
		entries: btree.NewMap[string, keyspaceEntry[V]](0),
	}
}

// Set stores a file value at key.
func (ks *Keyspace[V]) Set(key string, value V) {
	ks.entries.Set(data.ToRelativePath(key), keyspaceEntry[V]{value: value})
}

// SetDir records an explicit (possibly empty) directory at key.
func (ks *Keyspace[V]) SetDir(key string) {
	key = data.ToRelativePath(key)
	if key == "" {
		return
	}

	ks.entries.Set(key, keyspaceEntry[V]{dir: true})
}

// Get returns the file value stored at key.
func (ks *Keyspace[V]) Get(key string) (V, bool) {
	entry, exists := ks.entries.Get(data.ToRelativePath(key))
	if !exists || entry.dir {
		var zero V
		return zero, false
	}

	return entry.value, true
}

// Delete removes key and returns true if it existed.
func (ks *Keyspace[V]) Delete(key string) bool {
	_, deleted := ks.entries.Delete(data.ToRelativePath(key))
	return deleted
}

// Lookup returns the value and type of the object at key. Keys that are
// not stored themselves but prefix another key are directories. The root
// always exists.
func (ks *Keyspace[V]) Lookup(key string) (V, data.FileType, bool) {
	var zero V
	key = data.ToRelativePath(key)
	if key == "" {
		return zero, data.FileTypeDirectory, true
	}

	if entry, exists := ks.entries.Get(key); exists {
		if entry.dir {
			return zero, data.FileTypeDirectory, true
		}
		return entry.value, data.FileTypeFile, true
	}

	prefix := DirPrefix(key)
	found := false
	ks.entries.Ascend(prefix, func(child string, _ keyspaceEntry[V]) bool {
		found = strings.HasPrefix(child, prefix)
		return false
	})

	if found {
		return zero, data.FileTypeDirectory, true
	}

	return zero, data.FileTypeFile, false
}

// Children yields the distinct first segments of all keys below dir.
func (ks *Keyspace[V]) Children(dir string) iter.Seq[string] {
	prefix := DirPrefix(data.ToRelativePath(dir))

	return func(yield func(string) bool) {
		seen := make(map[string]struct{})
		ks.entries.Ascend(prefix, func(key string, _ keyspaceEntry[V]) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}

			name, _, _ := strings.Cut(key[len(prefix):], data.Separator)
			if _, exists := seen[name]; exists || name == "" {
				return true
			}

			seen[name] = struct{}{}
			return yield(name)
		})
	}
}

// Keys yields every stored key below dir in sorted order.
func (ks *Keyspace[V]) Keys(dir string) iter.Seq[string] {
	prefix := DirPrefix(data.ToRelativePath(dir))

	return func(yield func(string) bool) {
		ks.entries.Ascend(prefix, func(key string, _ keyspaceEntry[V]) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}
			return yield(key)
		})
	}
}

func (ks *Keyspace[V]) Len() int {
	return ks.entries.Len()
}

func (ks *Keyspace[V]) Clear() {
	ks.entries.Clear()
}
