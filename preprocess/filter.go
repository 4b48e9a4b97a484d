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
	"strconv"
	"strings"

	"github.com/QuantumByte-01/kagent/core"
)

// BuildFilter assembles the sparse metadata filter for one record.
// Output carries the datasource's own identity (datasource_id, name,
// description, type), then each FilterSchema key whose mapped source
// fields held non-empty data. Scalars become singletons, lists are
// deduplicated in original order, empty values are omitted entirely.
// Identifier fields are promoted to positional identifier1..n keys in
// declaration order; extraURLs extend the sequence with URLs not
// already present among the identifiers.
func BuildFilter(fields map[string]any, config *core.DatasourceConfig, extraURLs []string) core.MetadataFilter {
	filter := core.MetadataFilter{
		"datasource_id": config.DatasourceID,
		"name":          config.Name,
	}
	if config.Description != "" {
		filter["description"] = config.Description
	}
	if config.Type != "" {
		filter["type"] = config.Type
	}

	for _, key := range config.FilterSchema {
		values := collectValues(fields, config.FieldMapping[key])
		if len(values) > 0 {
			filter[key] = values
		}
	}

	position := 0
	seen := make(map[string]bool)
	addIdentifier := func(value string) {
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		position++
		filter[fmt.Sprintf("identifier%d", position)] = value
	}
	for _, field := range config.IdentifierFields {
		for _, value := range collectValues(fields, fieldPaths(config, field)) {
			addIdentifier(value)
		}
	}
	for _, u := range extraURLs {
		addIdentifier(u)
	}

	return filter
}

// fieldPaths resolves a canonical field name through the mapping,
// falling back to the name itself as a direct path.
func fieldPaths(config *core.DatasourceConfig, field string) []string {
	if paths, ok := config.FieldMapping[field]; ok {
		return paths
	}
	return []string{field}
}

// collectValues gathers the stringified non-empty values behind a set
// of source paths, deduplicated in encounter order.
func collectValues(fields map[string]any, paths []string) []string {
	var values []string
	seen := make(map[string]bool)
	for _, path := range paths {
		for _, value := range stringify(core.LookupField(fields, path)) {
			if value == "" || seen[value] {
				continue
			}
			seen[value] = true
			values = append(values, value)
		}
	}
	return values
}

// stringify flattens a raw field value into trimmed strings. Lists
// flatten one level; objects and nil contribute nothing.
func stringify(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return nil
	case bool:
		return []string{strconv.FormatBool(v)}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(v)}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, stringify(item)...)
		}
		return out
	case []string:
		var out []string
		for _, item := range v {
			out = append(out, stringify(item)...)
		}
		return out
	default:
		return nil
	}
}
