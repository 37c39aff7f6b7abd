package vfs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter restricts listings by node type.
type Filter string

const (
	FilterAll   Filter = "all"
	FilterFiles Filter = "files"
	FilterDirs  Filter = "directories"
)

// ParseFilter resolves a filter name. Singular forms and "dirs"/"folders" are accepted.
func ParseFilter(s string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, true
	case "files", "file":
		return FilterFiles, true
	case "directories", "directory", "dirs", "dir", "folders", "folder":
		return FilterDirs, true
	}
	return "", false
}

// List returns the sorted names of the visible direct children of dir.
func (e *Engine) List(dir string, filter Filter) ([]string, error) {
	names, err := e.list(OpList, dir, filter, nil)
	return names, e.record(OpList, err)
}

// Glob is List restricted to names matching pattern, where "*" matches any
// run of characters and "?" a single character. Everything else is literal.
func (e *Engine) Glob(dir, pattern string, filter Filter) ([]string, error) {
	if n := len([]rune(pattern)); n > e.cfg.MaxGlobPattern {
		err := newError(OpGlob, dir, KindInvalidArgument, fmt.Sprintf("pattern length %d exceeds %d", n, e.cfg.MaxGlobPattern))
		return []string{}, e.record(OpGlob, err)
	}
	expr := escapeGlob(pattern)
	if !doublestar.ValidatePattern(expr) {
		err := newError(OpGlob, dir, KindInvalidArgument, "bad pattern "+pattern)
		return []string{}, e.record(OpGlob, err)
	}
	match := func(name string) bool {
		ok, err := doublestar.Match(expr, name)
		return err == nil && ok
	}
	names, err := e.list(OpGlob, dir, filter, match)
	return names, e.record(OpGlob, err)
}

// escapeGlob quotes every doublestar metacharacter other than * and ?.
func escapeGlob(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '\\', '[', ']', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (e *Engine) list(op, dir string, filter Filter, match func(string) bool) ([]string, error) {
	names := []string{}
	f, ok := ParseFilter(string(filter))
	if !ok {
		return names, newError(op, dir, KindInvalidArgument, "unknown filter "+string(filter))
	}
	filter = f
	p, err := e.canon(op, dir)
	if err != nil {
		return names, err
	}
	p = AsDir(p)
	if !e.store.exists(p) && e.store.exists(AsFile(p)) {
		return names, newError(op, p, KindIsFile, "")
	}
	if _, err := e.lookup(op, p); err != nil {
		return names, err
	}

	for _, child := range e.store.children(p) {
		if !e.visible(child) {
			continue
		}
		cn, _ := e.store.get(child)
		switch filter {
		case FilterFiles:
			if cn.IsDir() {
				continue
			}
		case FilterDirs:
			if !cn.IsDir() {
				continue
			}
		}
		name := Base(child)
		if match != nil && !match(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
