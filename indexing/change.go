package indexing

import "github.com/poiesic/semindex/core"

// Change is the ChangeDetector's verdict for one document.
type Change struct {
	Decision core.Decision
	// Carry holds the prior entries reused verbatim for a skipped, non-draft document.
	Carry []core.IndexEntry
	// Purged counts prior entries dropped because the document is now a draft.
	Purged int
}

// ChangeDetector compares documents against the previous build.
type ChangeDetector struct {
	prev *core.PreviousIndex
}

// NewChangeDetector creates a detector over prev. A nil prev means a full
// rebuild: every non-draft document is recomputed.
func NewChangeDetector(prev *core.PreviousIndex) *ChangeDetector {
	return &ChangeDetector{prev: prev}
}

// Detect decides whether doc needs recomputation.
//
// Drafts are skipped and any prior entries for their slug are purged. A
// document whose mtime equals the recorded mtime is skipped and its prior
// entries are carried forward. Anything else is recomputed and its prior
// entries are discarded.
func (d *ChangeDetector) Detect(doc *core.Document) Change {
	mtime, entries, found := d.prev.Lookup(doc.Slug)

	if doc.Draft {
		return Change{Decision: core.DecisionSkip, Purged: len(entries)}
	}
	if found && mtime == doc.Mtime {
		return Change{Decision: core.DecisionSkip, Carry: entries}
	}
	return Change{Decision: core.DecisionRecompute}
}
