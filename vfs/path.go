package vfs

import (
	"strings"
	"unicode/utf8"
)

// Well known paths.
const (
	RootPath  = "/"
	RAMPath   = "/RAM/"
	TrashPath = "/.Trash/"
)

// forbiddenChars may never appear in a path.
const forbiddenChars = "\"'`"

// Canonicalize turns input into a canonical absolute path. Backslashes become
// slashes, repeated slashes collapse, segments are trimmed, "." segments are
// dropped and ".." pops the previous segment (never above root). A trailing
// slash, or a trailing "."/".." segment, marks a directory.
//
// Inputs that are already canonical-looking are returned unchanged.
// The second result is false for invalid input: non UTF-8, blank, or
// containing quotes or backticks.
func Canonicalize(input string) (string, bool) {
	if !utf8.ValidString(input) || strings.TrimSpace(input) == "" {
		return "", false
	}
	if strings.ContainsAny(input, forbiddenChars) {
		return "", false
	}
	if isFastPath(input) {
		return input, true
	}

	s := strings.ReplaceAll(input, "\\", "/")
	raw := strings.Split(s, "/")
	last := strings.TrimSpace(raw[len(raw)-1])
	isDir := last == "" || last == "." || last == ".."

	segs := make([]string, 0, len(raw))
	for _, seg := range raw {
		seg = strings.TrimSpace(seg)
		switch seg {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, seg)
		}
	}
	if len(segs) == 0 {
		return RootPath, true
	}

	out := "/" + strings.Join(segs, "/")
	if isDir {
		out += "/"
	}
	if hasDotSegment(out) {
		return "", false
	}
	return out, true
}

func isFastPath(p string) bool {
	return strings.HasPrefix(p, "/") &&
		!strings.Contains(p, "\\") &&
		!strings.Contains(p, "//") &&
		!hasDotSegment(p)
}

func hasDotSegment(p string) bool {
	return strings.Contains(p, "/./") || strings.Contains(p, "/../") ||
		strings.HasSuffix(p, "/.") || strings.HasSuffix(p, "/..")
}

// IsDirPath reports whether p is in directory form.
func IsDirPath(p string) bool {
	return strings.HasSuffix(p, "/")
}

// AsDir returns the directory form of p.
func AsDir(p string) string {
	if IsDirPath(p) {
		return p
	}
	return p + "/"
}

// AsFile returns the file form of p. Root has no file form and is returned as is.
func AsFile(p string) string {
	if p == RootPath {
		return p
	}
	return strings.TrimSuffix(p, "/")
}

// Counterpart returns the other form of p: "/a" for "/a/" and vice versa.
func Counterpart(p string) string {
	if IsDirPath(p) {
		return AsFile(p)
	}
	return AsDir(p)
}

// Parent returns the directory containing p, or "" for root.
func Parent(p string) string {
	if p == RootPath || p == "" {
		return ""
	}
	trimmed := strings.TrimSuffix(p, "/")
	idx := strings.LastIndex(trimmed, "/")
	return trimmed[:idx+1]
}

// Base returns the last segment of p without any trailing slash.
// Root yields "/".
func Base(p string) string {
	if p == RootPath {
		return p
	}
	trimmed := strings.TrimSuffix(p, "/")
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

// IsWithin reports whether p is dir itself or lies below it. dir must be in
// directory form.
func IsWithin(p, dir string) bool {
	return strings.HasPrefix(p, dir)
}
