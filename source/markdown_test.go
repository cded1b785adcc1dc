package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"headings and emphasis", "# Title\n\nSome *emphasis* and **strong** text.\n", "Title\n\nSome emphasis and strong text."},
		{"closing hashes", "## Section ##\n\nBody", "Section\n\nBody"},
		{"setext heading", "Title\n=====\n\nBody", "Title\n\nBody"},
		{"links and images", "![logo](logo.png)\n\nSee [the docs](https://x.io/docs).", "See the docs."},
		{"reference links", "[text][ref]\n\n[ref]: https://example.com", "text"},
		{"fenced code dropped", "Before\n\n```go\nfmt.Println(\"x\")\n```\n\nAfter", "Before\n\nAfter"},
		{"tilde fence dropped", "Before\n\n~~~\ncode\n~~~\n\nAfter", "Before\n\nAfter"},
		{"inline code unwrapped", "Run `make build` now", "Run make build now"},
		{"lists", "- first item\n- second item\n1. numbered\n", "first item\nsecond item\nnumbered"},
		{"task list", "- [x] done\n- [ ] todo", "done\ntodo"},
		{"blockquote", "> quoted line", "quoted line"},
		{"horizontal rule", "One\n\n---\n\nTwo", "One\n\nTwo"},
		{"html", "<div class=\"note\">Hello <b>world</b></div>\n<!-- hidden -->", "Hello world"},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", "a b\n\n1 2"},
		{"snake case kept", "call my_func_name here", "call my_func_name here"},
		{"underscore emphasis", "an _important_ word", "an important word"},
		{"strikethrough", "~~old~~ new", "old new"},
		{"crlf", "a\r\n\r\nb", "a\n\nb"},
		{"collapses blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"whitespace-only lines become blank", "a\n   \nb", "a\n\nb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}
