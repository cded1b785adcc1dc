// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/semindex/core"
)

// FrontMatter holds the recognized front-matter fields. Unknown fields are ignored.
type FrontMatter struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Draft       bool   `yaml:"draft"`
}

const frontMatterDelimiter = "---"

// ParseFrontMatter splits raw document bytes into body and front matter.
//
// A front-matter block starts with a "---" line at the very top of the
// document and ends with the next "---" or "..." line. Documents without a
// block are returned whole as the body. An unterminated block or invalid YAML
// returns an error wrapping core.ErrMalformedDocument.
func ParseFrontMatter(raw []byte) (string, FrontMatter, error) {
	var fm FrontMatter

	text := strings.TrimPrefix(string(raw), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(first, " \t") != frontMatterDelimiter {
		return text, fm, nil
	}
	if !found {
		return "", fm, fmt.Errorf("%w: unterminated front matter", core.ErrMalformedDocument)
	}

	offset := 0
	for {
		line, tail, more := strings.Cut(rest[offset:], "\n")
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == frontMatterDelimiter || trimmed == "..." {
			block := rest[:offset]
			if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
				return "", FrontMatter{}, fmt.Errorf("%w: %v", core.ErrMalformedDocument, err)
			}
			if !more {
				return "", fm, nil
			}
			return tail, fm, nil
		}
		if !more {
			return "", fm, fmt.Errorf("%w: unterminated front matter", core.ErrMalformedDocument)
		}
		offset += len(line) + 1
	}
}
