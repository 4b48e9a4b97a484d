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
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/QuantumByte-01/kagent/core"
)

// BuildChunks assembles the text chunks for one record. Each chunk
// group becomes one chunk by joining its non-empty normalized fields
// with a blank line, in declared order. Groups whose every field is
// empty produce nothing; a record yielding zero chunks is a valid
// outcome, not an error. Groups with a max_chars cap are split with a
// recursive character splitter, each piece keeping the group's source
// fields.
func BuildChunks(normalized map[string]string, spec []core.ChunkGroup) []core.Chunk {
	var chunks []core.Chunk
	for _, group := range spec {
		var parts []string
		var contributed []string
		for _, field := range group.Fields {
			value := strings.TrimSpace(normalized[field])
			if value == "" {
				continue
			}
			parts = append(parts, value)
			contributed = append(contributed, field)
		}
		if len(parts) == 0 {
			continue
		}
		text := strings.Join(parts, "\n\n")

		for _, piece := range splitText(text, group.MaxChars) {
			chunks = append(chunks, core.Chunk{
				Text:         piece,
				SourceFields: contributed,
			})
		}
	}
	return chunks
}

// splitText caps chunk text at maxChars using the recursive character
// splitter, which prefers paragraph and sentence boundaries. Zero
// means unbounded. Splitting is deterministic; if the splitter cannot
// process the text the chunk stays whole rather than losing content.
func splitText(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		return []string{text}
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxChars),
		textsplitter.WithChunkOverlap(0),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil || len(pieces) == 0 {
		return []string{text}
	}
	return pieces
}
