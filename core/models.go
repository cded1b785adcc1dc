package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a single corpus document after loading and front-matter parsing.
type Document struct {
	Path        string // Slash-separated path relative to the corpus root
	Slug        string
	Title       string
	Description string
	Draft       bool
	Mtime       int64  // Last modification time in epoch milliseconds
	Body        string // Raw body with front matter removed (still markdown)
}

// Fragment is an addressable paragraph of a document's plain text.
type Fragment struct {
	ID    string
	Slug  string
	Text  string
	Index int
}

// FragmentID returns the id of the index-th fragment of the document with the given slug.
func FragmentID(slug string, index int) string {
	return slug + "#para-" + strconv.Itoa(index)
}

// IndexEntry is one record of the search index artifact.
type IndexEntry struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Mtime       int64     `json:"mtime"`
	Vector      []float32 `json:"vector"`
}

// Decision is the change detector's verdict for a document.
type Decision int

const (
	// DecisionRecompute means the document's fragments must be embedded again.
	DecisionRecompute Decision = iota
	// DecisionSkip means no embedding work is needed; any carried entries are reused.
	DecisionSkip
)

func (d Decision) String() string {
	switch d {
	case DecisionRecompute:
		return "recompute"
	case DecisionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// PreviousIndex is the lookup view of the last successful build, keyed by slug.
type PreviousIndex struct {
	mtimes  map[string]int64
	entries map[string][]IndexEntry
	order   []string
	dims    int
}

// NewPreviousIndex groups entries by slug. Entry order within a slug is preserved.
// The recorded mtime of a slug is the mtime of its first entry.
func NewPreviousIndex(entries []IndexEntry) *PreviousIndex {
	p := &PreviousIndex{
		mtimes:  make(map[string]int64),
		entries: make(map[string][]IndexEntry),
	}
	for _, e := range entries {
		if _, seen := p.mtimes[e.Slug]; !seen {
			p.mtimes[e.Slug] = e.Mtime
			p.order = append(p.order, e.Slug)
		}
		p.entries[e.Slug] = append(p.entries[e.Slug], e)
		if p.dims == 0 {
			p.dims = len(e.Vector)
		}
	}
	return p
}

// Lookup returns the recorded mtime and entries for slug.
func (p *PreviousIndex) Lookup(slug string) (int64, []IndexEntry, bool) {
	if p == nil {
		return 0, nil, false
	}
	mtime, ok := p.mtimes[slug]
	if !ok {
		return 0, nil, false
	}
	return mtime, p.entries[slug], true
}

// Len returns the number of slugs recorded.
func (p *PreviousIndex) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Slugs returns the recorded slugs in their original artifact order.
func (p *PreviousIndex) Slugs() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

// Dimensions returns the vector length of the previous entries, or 0 when empty.
func (p *PreviousIndex) Dimensions() int {
	if p == nil {
		return 0
	}
	return p.dims
}

// Checkpoint records the last successful build.
type Checkpoint struct {
	Artifact   string // Path of the artifact the build wrote
	Model      string
	Dimensions int
	Entries    int
	BuiltAt    time.Time
}
