package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTypes(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"main->rescue->v1", []string{"main", "rescue", "v1"}},
		{"main", []string{"main"}},
		{"A->->B", []string{"A", "B"}},
		{"->A->B", []string{"A", "B"}},
		{"A->B->", []string{"A", "B"}},
		{"->", nil},
		{"", nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SplitTypes(c.raw), "raw=%q", c.raw)
	}
}

func TestSplitTypes_IdempotentOnCanonicalPaths(t *testing.T) {
	for _, raw := range []string{"main", "main->rescue", "a->b->c"} {
		once := SplitTypes(raw)
		again := SplitTypes(strings.Join(once, "->"))
		assert.Equal(t, once, again)
	}
}

func TestMatchesTypes(t *testing.T) {
	path := SplitTypes("main->rescue->v1")

	assert.True(t, matchesTypes(path, []string{"main", "rescue"}, false))
	assert.False(t, matchesTypes(SplitTypes("main->v1"), []string{"main", "rescue"}, false))
	assert.True(t, matchesTypes(SplitTypes("main->v1"), []string{"main", "rescue"}, true))
	assert.False(t, matchesTypes(SplitTypes("control"), []string{"main", "rescue"}, true))
}

func TestMatchesTypes_AndImpliesOr(t *testing.T) {
	paths := [][]string{
		SplitTypes("main->rescue->v1"),
		SplitTypes("main->v1"),
		SplitTypes("control"),
		nil,
	}
	requested := []string{"main", "rescue"}
	for _, p := range paths {
		if matchesTypes(p, requested, false) {
			assert.True(t, matchesTypes(p, requested, true), "path=%v", p)
		}
	}
}
