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


package core

import (
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// RawRecord is an unmodified document pulled from the search index.
// Once written to raw storage it is never mutated.
type RawRecord struct {
	// ID is the record identifier assigned by the upstream datasource.
	ID string `json:"id"`

	// Source is the datasource identifier the record was extracted from.
	Source string `json:"source"`

	// Fields holds the document body as it came off the index.
	Fields map[string]any `json:"fields"`
}

// MetadataFilter maps filter keys to a value or list of values.
// Keys present are exactly the schema keys that had non-empty source
// data; absent data means an absent key, never a null.
type MetadataFilter map[string]any

// Chunk is a bounded span of normalized text assembled from one
// record's fields. Chunk text never contains raw HTML markup;
// embedded links are either inlined as markdown or collected into the
// owning record's ExtractedURLs.
type Chunk struct {
	// VectorID is the deterministic identifier used to address this
	// chunk in downstream vector stores.
	VectorID string `json:"vector_id"`

	// Text is the chunk content fed to vectorization.
	Text string `json:"text"`

	// SourceFields lists the canonical field names that contributed
	// to Text, in contribution order.
	SourceFields []string `json:"source_fields"`
}

// ProcessedRecord is the normalized form of one RawRecord. It is a
// pure function of the raw record and its datasource configuration:
// reprocessing the same inputs yields byte-identical JSON.
type ProcessedRecord struct {
	ID            string         `json:"id"`
	DatasourceID  string         `json:"datasource_id"`
	Metadata      MetadataFilter `json:"metadata_filters"`
	Chunks        []Chunk        `json:"chunks"`
	ExtractedURLs []string       `json:"extracted_urls"`
}

// Checkpoint records the last durably persisted extraction position
// for one datasource, enabling an interrupted run to resume without
// re-reading already persisted pages.
type Checkpoint struct {
	// DatasourceID identifies the run the checkpoint belongs to.
	DatasourceID string

	// SearchAfter is the JSON-encoded sort key of the last record on
	// the last fully persisted page.
	SearchAfter string

	// Pages is the number of fully persisted pages.
	Pages int

	// Records is the number of records persisted so far.
	Records int

	UpdatedAt time.Time
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every non-alphanumeric run to a
// single hyphen. An input with no usable characters yields "src".
func Slugify(s string) string {
	s = slugPattern.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "src"
	}
	return s
}

// VectorIDFromContent generates a deterministic fallback vector ID by
// hashing text with BLAKE2b. Identical content always produces the
// same ID, which keeps reprocessing idempotent even for records the
// upstream source shipped without an identifier.
func VectorIDFromContent(prefix, text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return prefix + "__" + hex.EncodeToString(h.Sum(nil))
}

// VectorIDFromRecord builds the canonical vector ID for a record:
// the slugified datasource name joined to the record ID. Records
// without an ID fall back to a content hash.
func VectorIDFromRecord(datasourceName, recordID, content string) string {
	slug := Slugify(datasourceName)
	if strings.TrimSpace(recordID) != "" {
		return slug + "__" + strings.TrimSpace(recordID)
	}
	return VectorIDFromContent(slug, content)
}
