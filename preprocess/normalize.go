// Copyright 2025 The kagent Authors
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


package preprocess

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
	blankPattern = regexp.MustCompile(`\n{3,}`)
)

// blockTags introduce a line break when opened or closed, so
// paragraph structure survives tag stripping.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true,
	"ol": true, "table": true, "tr": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true,
	"pre": true, "section": true, "article": true,
}

// NormalizeHTML converts a field value with embedded markup to plain
// text with markdown links. Anchors with both text and destination
// become [text](href); every other tag is stripped, keeping visible
// text and whitespace-normalized line breaks. Malformed markup never
// errors: the worst case degrades to stripping everything
// angle-bracketed.
func NormalizeHTML(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return collapseWhitespace(value)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(value))
	var out strings.Builder
	var anchorText strings.Builder
	var anchorHref string
	inAnchor := false

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				if inAnchor {
					out.WriteString(anchorText.String())
				}
				return collapseWhitespace(out.String())
			}
			return collapseWhitespace(stripTags(value))

		case html.TextToken:
			text := string(tokenizer.Text())
			if inAnchor {
				anchorText.WriteString(text)
			} else {
				out.WriteString(text)
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := string(name)
			if tag == "a" && tokenType == html.StartTagToken {
				inAnchor = true
				anchorText.Reset()
				anchorHref = ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = tokenizer.TagAttr()
					if string(key) == "href" {
						anchorHref = string(val)
					}
				}
			} else if blockTags[tag] {
				out.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "a" && inAnchor {
				inAnchor = false
				out.WriteString(renderAnchor(anchorText.String(), anchorHref))
			} else if blockTags[tag] {
				out.WriteByte('\n')
			}
		}
	}
}

// renderAnchor emits a markdown link when both parts are present,
// otherwise whichever part exists.
func renderAnchor(text, href string) string {
	text = strings.TrimSpace(text)
	href = strings.TrimSpace(href)
	switch {
	case text != "" && href != "":
		return "[" + text + "](" + href + ")"
	case href != "":
		return href
	default:
		return text
	}
}

// stripTags is the degraded path for markup the tokenizer cannot
// walk: drop everything angle-bracketed, unescape entities.
func stripTags(value string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(value, " "))
}

// collapseWhitespace squeezes runs of spaces and tabs, trims line
// ends and caps consecutive blank lines at one.
func collapseWhitespace(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = spacePattern.ReplaceAllString(value, " ")
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	value = strings.Join(lines, "\n")
	value = blankPattern.ReplaceAllString(value, "\n\n")
	return strings.TrimSpace(value)
}
