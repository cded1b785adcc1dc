package indexing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/semindex/core"
)

var (
	longA = "The first paragraph is comfortably longer than forty characters."
	longB = "A second paragraph that also clears the minimum length threshold."
)

func TestChunker(t *testing.T) {
	c := NewChunker(DefaultMinFragmentLength)

	t.Run("splits on blank lines", func(t *testing.T) {
		frags := c.Chunk("doc", longA+"\n\n"+longB)
		assert.Equal(t, []core.Fragment{
			{ID: "doc#para-0", Slug: "doc", Text: longA, Index: 0},
			{ID: "doc#para-1", Slug: "doc", Text: longB, Index: 1},
		}, frags)
	})

	t.Run("single newline does not split", func(t *testing.T) {
		frags := c.Chunk("doc", "line one of a paragraph\nline two of the same paragraph")
		assert.Len(t, frags, 1)
	})

	t.Run("runs of newlines and trimming", func(t *testing.T) {
		frags := c.Chunk("doc", "\n\n\n   "+longA+"   \n\n\n\n"+longB+"\n")
		assert.Len(t, frags, 2)
		assert.Equal(t, longA, frags[0].Text)
	})

	t.Run("short paragraphs dropped and ids stay contiguous", func(t *testing.T) {
		frags := c.Chunk("doc", longA+"\n\nToo short.\n\n"+longB)
		assert.Len(t, frags, 2)
		assert.Equal(t, "doc#para-1", frags[1].ID)
		assert.Equal(t, longB, frags[1].Text)
	})

	t.Run("ten character body yields nothing", func(t *testing.T) {
		frags := c.Chunk("doc", "0123456789")
		assert.NotNil(t, frags)
		assert.Empty(t, frags)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, c.Chunk("doc", ""))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		assert.Len(t, c.Chunk("doc", strings.Repeat("x", 40)), 1)
		assert.Empty(t, c.Chunk("doc", strings.Repeat("x", 39)))
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		// 39 runes, 78 bytes
		assert.Empty(t, c.Chunk("doc", strings.Repeat("é", 39)))
	})
}

func TestChunker_ZeroMinimum(t *testing.T) {
	frags := NewChunker(-5).Chunk("s", "a\n\nb")
	assert.Len(t, frags, 2)
}
