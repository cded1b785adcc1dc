package source

import (
	"path"
	"strings"
)

// DeriveSlug resolves a document's canonical identifier.
//
// A non-blank override is trimmed and used verbatim. Otherwise the slug is the
// slash-separated relative path with its extension removed, a trailing
// "/index" segment removed, lower-cased. A root-level "index" document keeps
// the slug "index".
func DeriveSlug(rel, override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}

	slug := strings.ToLower(strings.TrimSuffix(rel, path.Ext(rel)))
	return strings.TrimSuffix(slug, "/index")
}
