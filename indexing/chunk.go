package indexing

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/semindex/core"
)

// DefaultMinFragmentLength is the minimum paragraph length, in characters,
// for a paragraph to become a fragment.
const DefaultMinFragmentLength = 40

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// Chunker splits plain text into paragraph fragments.
type Chunker struct {
	minLength int
}

// NewChunker creates a chunker that drops paragraphs shorter than minLength
// characters after trimming.
func NewChunker(minLength int) *Chunker {
	if minLength < 0 {
		minLength = 0
	}
	return &Chunker{minLength: minLength}
}

// Chunk splits text on blank lines and returns the retained paragraphs in
// order. Fragment indices are contiguous over retained paragraphs, so the
// ids are slug#para-0 through slug#para-(n-1).
func (c *Chunker) Chunk(slug, text string) []core.Fragment {
	fragments := []core.Fragment{}
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" || utf8.RuneCountInString(para) < c.minLength {
			continue
		}
		idx := len(fragments)
		fragments = append(fragments, core.Fragment{
			ID:    core.FragmentID(slug, idx),
			Slug:  slug,
			Text:  para,
			Index: idx,
		})
	}
	return fragments
}
