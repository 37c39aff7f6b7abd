package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"root", "/", "/", true},
		{"plain file", "/a/b.txt", "/a/b.txt", true},
		{"plain dir", "/a/b/", "/a/b/", true},
		{"relative", "a/b", "/a/b", true},
		{"double slash and dotdot", "/a//b/../c/", "/a/c/", true},
		{"backslashes", `\a\b\`, "/a/b/", true},
		{"trailing dot is dir", "/a/.", "/a/", true},
		{"trailing dotdot is dir", "/a/b/..", "/a/", true},
		{"dotdot above root", "/../../x", "/x", true},
		{"trimmed segments", " a / b.txt ", "/a/b.txt", true},
		{"fast path kept verbatim", "/ a /b", "/ a /b", true},
		{"only dots", "./..", "/", true},
		{"unicode", "/données/été.txt", "/données/été.txt", true},
		{"emoji", "/🙂/📁/", "/🙂/📁/", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"double quote", `/a"b`, "", false},
		{"single quote", "/a'b", "", false},
		{"backtick", "/a`b", "", false},
		{"invalid utf8", "/a\xffb", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Canonicalize(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				again, ok2 := Canonicalize(got)
				assert.True(t, ok2)
				assert.Equal(t, got, again, "canonical form must be a fixed point")
			}
		})
	}
}

func TestPathHelpers(t *testing.T) {
	t.Parallel()

	t.Run("forms", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsDirPath("/a/"))
		assert.False(t, IsDirPath("/a"))
		assert.Equal(t, "/a/", AsDir("/a"))
		assert.Equal(t, "/a/", AsDir("/a/"))
		assert.Equal(t, "/a", AsFile("/a/"))
		assert.Equal(t, "/", AsFile("/"))
		assert.Equal(t, "/a/", Counterpart("/a"))
		assert.Equal(t, "/a", Counterpart("/a/"))
	})

	t.Run("parent and base", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", Parent("/"))
		assert.Equal(t, "/", Parent("/a"))
		assert.Equal(t, "/", Parent("/a/"))
		assert.Equal(t, "/a/", Parent("/a/b.txt"))
		assert.Equal(t, "/a/", Parent("/a/b/"))
		assert.Equal(t, "/", Base("/"))
		assert.Equal(t, "b.txt", Base("/a/b.txt"))
		assert.Equal(t, "b", Base("/a/b/"))
	})

	t.Run("within", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsWithin("/a/b", "/a/"))
		assert.True(t, IsWithin("/a/", "/a/"))
		assert.False(t, IsWithin("/ab", "/a/"))
		assert.False(t, IsWithin("/a", "/a/"))
	})
}
