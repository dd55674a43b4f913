package backend

import (
	"strings"

	"github.com/mwantia/cellfs/data"
)

// DirPrefix returns the prefix that every key below dir starts with.
func DirPrefix(dir string) string {
	if dir == "" {
		return ""
	}

	return dir + data.Separator
}

// JoinKey joins a directory key with a child name.
func JoinKey(dir, name string) string {
	return DirPrefix(dir) + name
}

// IsUnder reports whether key lies strictly below dir.
func IsUnder(key, dir string) bool {
	rel, ok := data.StripPrefix(key, dir)
	return ok && rel != ""
}

// ChildName returns the first path segment of key after stripping dir.
// It returns false if key is not strictly below dir.
func ChildName(key, dir string) (string, bool) {
	rel, ok := data.StripPrefix(key, dir)
	if !ok || rel == "" {
		return "", false
	}

	name, _, _ := strings.Cut(rel, data.Separator)
	return name, true
}

// NormalizeKey validates key for storing an object and returns it in
// relative form. The root cannot hold an object.
func NormalizeKey(key string) (string, error) {
	if err := data.ValidatePath(key); err != nil {
		return "", err
	}

	normalized := data.ToRelativePath(key)
	if normalized == "" {
		return "", data.InvalidPath(key)
	}

	return normalized, nil
}
