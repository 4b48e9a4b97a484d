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
	"fmt"
	"sort"
	"strings"

	"github.com/QuantumByte-01/kagent/core"
)

// Transform derives the processed form of one raw record under its
// datasource config: normalized canonical fields, extracted URLs, the
// sparse metadata filter and the text chunks with their vector IDs.
// The result is a pure function of (record, config) — reprocessing
// yields a byte-identical record, so storage overwrites are
// idempotent.
func Transform(record *core.RawRecord, config *core.DatasourceConfig) (*core.ProcessedRecord, error) {
	if err := core.ValidateRawRecord(record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordProcessing, err)
	}

	htmlFields := make(map[string]bool, len(config.HTMLFields))
	for _, field := range config.HTMLFields {
		htmlFields[field] = true
	}

	// Canonical fields resolve through the mapping; iteration order
	// is fixed by sorting so URL discovery order is stable.
	canonical := make([]string, 0, len(config.FieldMapping))
	for field := range config.FieldMapping {
		canonical = append(canonical, field)
	}
	sort.Strings(canonical)

	normalized := make(map[string]string, len(canonical))
	var urls []string
	seenURL := make(map[string]bool)
	for _, field := range canonical {
		value := resolveField(record.Fields, config.FieldMapping[field])
		if value == "" {
			continue
		}
		if htmlFields[field] {
			value = NormalizeHTML(value)
		} else {
			value = collapseWhitespace(value)
		}
		normalized[field] = value

		for _, u := range ExtractURLs(value) {
			if !seenURL[u] {
				seenURL[u] = true
				urls = append(urls, u)
			}
		}
	}

	chunks := BuildChunks(normalized, config.ChunkSpec)
	base := core.VectorIDFromRecord(config.Name, record.ID, chunkContent(chunks))
	for i := range chunks {
		if i == 0 {
			chunks[i].VectorID = base
		} else {
			chunks[i].VectorID = fmt.Sprintf("%s-%d", base, i)
		}
	}

	return &core.ProcessedRecord{
		ID:            record.ID,
		DatasourceID:  config.DatasourceID,
		Metadata:      BuildFilter(record.Fields, config, urls),
		Chunks:        chunks,
		ExtractedURLs: urls,
	}, nil
}

// resolveField returns the first non-empty stringified value among
// the source paths. Multi-valued sources join with newlines so list
// fields such as author lists survive as text.
func resolveField(fields map[string]any, paths []string) string {
	for _, path := range paths {
		values := stringify(core.LookupField(fields, path))
		if len(values) > 0 {
			return strings.Join(values, "\n")
		}
	}
	return ""
}

// chunkContent concatenates chunk text for the content-hash vector ID
// fallback used when a record carries no ID.
func chunkContent(chunks []core.Chunk) string {
	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(chunk.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
