package engine

import (
	"slices"
	"strings"
)

// typeDelimiter separates the segments of a group type path, e.g.
// "main->rescue->v1".
const typeDelimiter = "->"

// SplitTypes splits a raw type value into its path segments. Leading,
// trailing or repeated delimiters never produce empty segments.
func SplitTypes(raw string) []string {
	var segs []string
	for _, s := range strings.Split(raw, typeDelimiter) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// matchesTypes reports whether a type path satisfies the requested types:
// every requested type must appear in the path, or any one of them when union
// is set.
func matchesTypes(path, requested []string, union bool) bool {
	if union {
		for _, want := range requested {
			if slices.Contains(path, want) {
				return true
			}
		}
		return false
	}
	for _, want := range requested {
		if !slices.Contains(path, want) {
			return false
		}
	}
	return true
}
