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
	"regexp"
	"strings"
)

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s"<>]+`)
	markdownPattern = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)\s]+)\)`)
)

// ExtractURLs finds absolute URLs in text: markdown link
// destinations first, then bare URLs, each set in appearance order.
// Dedup is exact-string
// only: http://x.org and http://x.org/ stay distinct, as do scheme or
// case variants. The single deliberate cleanup beyond the raw regex
// match is stripping trailing sentence punctuation and closing
// brackets (".,;:)]"), so a URL ending a sentence or sitting inside a
// markdown link dedups against its plain occurrence. No other
// canonicalization is attempted.
func ExtractURLs(text string) []string {
	if !strings.Contains(text, "://") {
		return nil
	}

	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimRight(u, ".,;:)]")
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	for _, match := range markdownPattern.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}
	for _, match := range urlPattern.FindAllString(text, -1) {
		add(match)
	}
	return urls
}
