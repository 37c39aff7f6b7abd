package util

import (
	"maps"
	"slices"
)

// Pointer simply returns a pointer to the supplied value
func Pointer[T any](v T) *T {
	return &v
}

// ValueOrDefault dereferences p, falling back to def when p is nil
func ValueOrDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
