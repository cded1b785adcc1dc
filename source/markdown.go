package source

import (
	"regexp"
	"strings"
)

var (
	fencedCode     = regexp.MustCompile("(?ms)^[ \t]*(```|~~~).*?^[ \t]*(```|~~~)[ \t]*$")
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	inlineCode     = regexp.MustCompile("`+([^`\n]+?)`+")
	images         = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	inlineLinks    = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	referenceLinks = regexp.MustCompile(`\[([^\]]+)\]\[[^\]]*\]`)
	linkDefs       = regexp.MustCompile(`(?m)^[ \t]*\[[^\]]+\]:[ \t]+\S.*$`)
	autoLinks      = regexp.MustCompile(`<((?:https?|mailto):[^>\s]+)>`)
	htmlTags       = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	headings       = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	setextUnder    = regexp.MustCompile(`(?m)^[ \t]*(=+|-+)[ \t]*$`)
	horizontalRule = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	blockquotes    = regexp.MustCompile(`(?m)^[ \t]*(>[ \t]?)+`)
	listMarkers    = regexp.MustCompile(`(?m)^[ \t]*([-*+]|\d+[.)])[ \t]+(\[[ xX]\][ \t]+)?`)
	tableDivider   = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-+:?[ \t]*(\|[ \t]*:?-+:?[ \t]*)*\|?[ \t]*$`)
	tablePipes     = regexp.MustCompile(`[ \t]*\|[ \t]*`)
	strongStars    = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	strongUnders   = regexp.MustCompile(`__([^_\n]+)__`)
	emStars        = regexp.MustCompile(`\*([^*\n]+)\*`)
	emUnders       = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	strikethrough  = regexp.MustCompile(`~~([^~\n]+)~~`)
	trailingSpace  = regexp.MustCompile(`(?m)[ \t]+$`)
	multiNewlines  = regexp.MustCompile(`\n{3,}`)
)

// PlainText converts a markdown body to plain prose.
//
// Fenced code blocks, HTML comments, images and link definitions are dropped.
// Links, inline code and emphasis keep their text. Heading, list, blockquote
// and table markup is removed. Paragraph boundaries (blank lines) survive, so
// the result can be split into paragraphs.
func PlainText(markdown string) string {
	s := strings.ReplaceAll(markdown, "\r\n", "\n")

	s = fencedCode.ReplaceAllString(s, "")
	s = htmlComment.ReplaceAllString(s, "")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = images.ReplaceAllString(s, "")
	s = inlineLinks.ReplaceAllString(s, "$1")
	s = referenceLinks.ReplaceAllString(s, "$1")
	s = linkDefs.ReplaceAllString(s, "")
	s = autoLinks.ReplaceAllString(s, "$1")
	s = htmlTags.ReplaceAllString(s, "")

	s = horizontalRule.ReplaceAllString(s, "")
	s = setextUnder.ReplaceAllString(s, "")
	s = headings.ReplaceAllString(s, "$1")
	s = blockquotes.ReplaceAllString(s, "")
	s = listMarkers.ReplaceAllString(s, "")
	s = tableDivider.ReplaceAllString(s, "")
	s = stripTablePipes(s)

	s = strongStars.ReplaceAllString(s, "$1")
	s = strongUnders.ReplaceAllString(s, "$1")
	s = emStars.ReplaceAllString(s, "$1")
	s = emUnders.ReplaceAllString(s, "$1")
	s = strikethrough.ReplaceAllString(s, "$1")

	s = trailingSpace.ReplaceAllString(s, "")
	s = multiNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripTablePipes turns table rows into space-separated cells. Only lines
// that start or end with a pipe are treated as table rows.
func stripTablePipes(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") || (strings.HasSuffix(trimmed, "|") && strings.Contains(trimmed[:len(trimmed)-1], "|")) {
			lines[i] = strings.TrimSpace(tablePipes.ReplaceAllString(trimmed, " "))
		}
	}
	return strings.Join(lines, "\n")
}
