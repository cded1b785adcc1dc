package indexing

import (
	"fmt"

	"github.com/poiesic/semindex/core"
)

type slot struct {
	slug    string
	entries []core.IndexEntry
	expect  int
	fresh   bool
}

// Assembler merges carried and freshly computed entries into document-enumeration order.
//
// Documents are registered in enumeration order with Carry (skipped) or
// Expect (recomputed). Fill then distributes the batcher's output, which is
// in the same order, over the Expect slots.
type Assembler struct {
	slots  []slot
	filled bool
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Carry registers a skipped document whose prior entries are reused verbatim.
func (a *Assembler) Carry(slug string, entries []core.IndexEntry) {
	a.slots = append(a.slots, slot{slug: slug, entries: entries})
}

// Expect registers a recomputed document that will receive n fresh entries.
func (a *Assembler) Expect(slug string, n int) {
	a.slots = append(a.slots, slot{slug: slug, expect: n, fresh: true})
}

// Fill assigns fresh entries to the Expect slots in order. Every fresh entry
// must belong to the slot it lands in and the counts must match exactly.
func (a *Assembler) Fill(fresh []core.IndexEntry) error {
	pos := 0
	for i := range a.slots {
		s := &a.slots[i]
		if !s.fresh {
			continue
		}
		if pos+s.expect > len(fresh) {
			return fmt.Errorf("%w: %q expects %d entries, %d left", ErrAssembly, s.slug, s.expect, len(fresh)-pos)
		}
		s.entries = fresh[pos : pos+s.expect]
		for _, e := range s.entries {
			if e.Slug != s.slug {
				return fmt.Errorf("%w: entry %q landed in %q", ErrAssembly, e.ID, s.slug)
			}
		}
		pos += s.expect
	}
	if pos != len(fresh) {
		return fmt.Errorf("%w: %d unclaimed entries", ErrAssembly, len(fresh)-pos)
	}
	a.filled = true
	return nil
}

// Entries returns the merged index. The result is never nil, so an empty
// corpus serializes as an empty list.
func (a *Assembler) Entries() ([]core.IndexEntry, error) {
	if !a.filled {
		if err := a.Fill(nil); err != nil {
			return nil, err
		}
	}

	total := 0
	for _, s := range a.slots {
		total += len(s.entries)
	}
	out := make([]core.IndexEntry, 0, total)
	for _, s := range a.slots {
		out = append(out, s.entries...)
	}

	if err := core.ValidateIndex(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Documents returns the number of registered documents.
func (a *Assembler) Documents() int {
	return len(a.slots)
}
