// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize converts a host or user-provided path to archive form.
//
// It performs the following transformations:
//   - Converts host separators to slashes: `a\b` → "a/b" (on Windows)
//   - Strips leading slashes: "/etc/nginx" → "etc/nginx"
//   - Strips trailing slashes: "etc/nginx/" → "etc/nginx"
//   - Collapses consecutive slashes: "etc//nginx" → "etc/nginx"
//   - Drops "." segments: "./etc/./nginx" → "etc/nginx"
//   - Converts the root to the empty string: "/", ".", "" → ""
//
// ".." segments are preserved; callers that accept untrusted input reject them.
func Normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// DirName returns the archive entry name of a directory: the normalized path
// with exactly one trailing slash. The root maps to the empty string.
func DirName(p string) string {
	p = Normalize(p)
	if p == "" {
		return ""
	}
	return p + "/"
}

// Parent returns the parent of a normalized path, or "" when p has a single
// segment.
func Parent(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// Join prefixes rel with prefix. An empty prefix returns rel unchanged.
func Join(prefix, rel string) string {
	prefix = Normalize(prefix)
	rel = Normalize(rel)
	switch {
	case prefix == "":
		return rel
	case rel == "":
		return prefix
	default:
		return prefix + "/" + rel
	}
}

// HasDotDot reports whether the normalized path escapes its root.
func HasDotDot(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
