package data

import (
	"path"
	"strings"
	"unicode/utf8"
)

// Separator joins path components on every platform.
const Separator = "/"

// IsAbsolutePath reports whether p starts at the root.
func IsAbsolutePath(p string) bool {
	return strings.HasPrefix(p, Separator)
}

// SplitPath returns the components of p. Empty components and "." are
// dropped, so "/a//b/./c/" and "/a/b/c" split identically.
func SplitPath(p string) []string {
	parts := strings.Split(p, Separator)
	components := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		components = append(components, part)
	}

	return components
}

// StripPrefix removes prefix from p component by component.
// It returns false if prefix is not a component prefix of p ("/a/b" is a
// prefix of "/a/b/c" but not of "/a/bc") or if only one of both is absolute.
// The remainder never has a leading separator; it is empty if p equals prefix.
func StripPrefix(p, prefix string) (string, bool) {
	if IsAbsolutePath(p) != IsAbsolutePath(prefix) {
		return "", false
	}

	components := SplitPath(p)
	prefixes := SplitPath(prefix)
	if len(prefixes) > len(components) {
		return "", false
	}

	for i, component := range prefixes {
		if components[i] != component {
			return "", false
		}
	}

	return strings.Join(components[len(prefixes):], Separator), true
}

// HasPrefix checks if prefix is a component prefix of p.
func HasPrefix(p, prefix string) bool {
	_, ok := StripPrefix(p, prefix)
	return ok
}

// CleanPath resolves "." and ".." components of an absolute path lexically,
// so "/data/../x.txt" becomes "/x.txt" and nothing climbs above the root.
// Relative paths are returned unchanged.
func CleanPath(p string) string {
	if !IsAbsolutePath(p) {
		return p
	}

	return path.Clean(p)
}

// JoinPath joins any number of path elements into a single path.
func JoinPath(elem ...string) string {
	return path.Join(elem...)
}

// ToRelativePath cleans p and removes any leading separator.
// The root and "." both become the empty string.
func ToRelativePath(p string) string {
	p = path.Clean(Separator + p)
	return strings.TrimPrefix(p, Separator)
}

// ValidatePath returns ErrInvalidPath if p cannot be used as a text key.
func ValidatePath(p string) error {
	if !utf8.ValidString(p) || strings.ContainsRune(p, 0) {
		return InvalidPath(p)
	}

	return nil
}
