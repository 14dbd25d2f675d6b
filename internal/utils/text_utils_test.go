package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("no limit returns text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", tp.TruncateText("hello", 0))
		assert.Equal(t, "hello", tp.TruncateText("hello", -1))
	})

	t.Run("within limit returns text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", tp.TruncateText("hello", 10))
	})

	t.Run("truncates on a rune boundary", func(t *testing.T) {
		text := "héllo wörld"
		truncated := tp.TruncateText(text, 3)
		assert.True(t, utf8.ValidString(truncated))
		assert.LessOrEqual(t, len(truncated), 3)
	})
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("clean text passes through", func(t *testing.T) {
		assert.Equal(t, "hello\nworld\ttab", tp.SanitizeUTF8("hello\nworld\ttab"))
	})

	t.Run("invalid sequences are dropped", func(t *testing.T) {
		dirty := "hello\xff\xfeworld"
		clean := tp.SanitizeUTF8(dirty)
		assert.True(t, utf8.ValidString(clean))
		assert.Equal(t, "helloworld", clean)
	})

	t.Run("control characters are stripped", func(t *testing.T) {
		assert.Equal(t, "ab", tp.SanitizeUTF8("a\x00\x07b"))
	})
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("normalizes before truncating", func(t *testing.T) {
		// decomposed é (e + combining accent) collapses to one rune under NFC
		decomposed := "é"
		processed := tp.ProcessText(decomposed, 2)
		assert.Equal(t, "é", processed)
	})

	t.Run("long input is bounded", func(t *testing.T) {
		long := strings.Repeat("a", 100)
		assert.Len(t, tp.ProcessText(long, 10), 10)
	})
}
