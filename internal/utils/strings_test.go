package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
	assert.Equal(t, "hello", TruncateString("hello", 5))
	assert.Equal(t, "hel...", TruncateString("hello", 3))
	assert.Equal(t, "", TruncateString("hello", 0))
	assert.Equal(t, "", TruncateString("hello", -1))
	assert.Equal(t, "", TruncateString("", 5))
}

func TestTruncateString_MultiByte(t *testing.T) {
	assert.Equal(t, "héllo", TruncateString("héllo", 5))
	assert.Equal(t, "hé...", TruncateString("héllo", 2))
	assert.Equal(t, "世界...", TruncateString("世界你好", 2))
}

func TestTruncateString_AlwaysValidUTF8(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		max := rapid.IntRange(1, 50).Draw(t, "max")

		out := TruncateString(s, max)
		if !utf8.ValidString(out) {
			t.Fatalf("truncation produced invalid UTF-8: %q", out)
		}
		if utf8.RuneCountInString(s) <= max && out != s {
			t.Fatalf("short string was modified: %q -> %q", s, out)
		}
		if utf8.RuneCountInString(s) > max && !strings.HasSuffix(out, "...") {
			t.Fatalf("truncated string lacks marker: %q", out)
		}
	})
}
