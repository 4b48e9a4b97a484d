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
	"fmt"
	"strings"
)

// ChunkGroup declares one chunk per record: the canonical fields that
// contribute to it, in order, and an optional size cap. Oversized
// chunks are split; zero means unbounded.
type ChunkGroup struct {
	Fields   []string `yaml:"fields" json:"fields"`
	MaxChars int      `yaml:"max_chars,omitempty" json:"max_chars,omitempty"`
}

// DatasourceConfig is the declarative transform description for one
// datasource. Adding a datasource means adding one of these, never
// touching the pipeline driver. Loaded once per run, read-only after.
type DatasourceConfig struct {
	// DatasourceID identifies the source and names its storage
	// prefixes.
	DatasourceID string `yaml:"datasource_id" json:"datasource_id"`

	// Name, Description and Type describe the source itself and are
	// stamped into every record's metadata filter.
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`

	// FieldMapping maps a canonical field name to one or more source
	// field paths, tried in order; the first non-empty value wins.
	// Paths use dots to descend into nested objects.
	FieldMapping map[string][]string `yaml:"field_mapping" json:"field_mapping"`

	// FilterSchema lists the metadata filter keys this source
	// recognizes, in output order. Keys whose mapped fields are empty
	// are omitted from the filter, never set to null.
	FilterSchema []string `yaml:"filter_schema" json:"filter_schema"`

	// ChunkSpec declares the chunk field groups.
	ChunkSpec []ChunkGroup `yaml:"chunk_spec" json:"chunk_spec"`

	// IdentifierFields are canonical fields promoted to positional
	// identifier1..n filter keys, in declaration order.
	IdentifierFields []string `yaml:"identifier_fields,omitempty" json:"identifier_fields,omitempty"`

	// HTMLFields are canonical fields whose values may carry embedded
	// markup and go through the HTML normalizer.
	HTMLFields []string `yaml:"html_fields,omitempty" json:"html_fields,omitempty"`
}

// ValidateDatasourceConfig checks that config describes a usable
// transform. It verifies identity, mapping coverage and chunk group
// shape; it does not touch any external resource.
func ValidateDatasourceConfig(config *DatasourceConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidDatasourceConfig)
	}
	if strings.TrimSpace(config.DatasourceID) == "" {
		return fmt.Errorf("%w: datasource_id is empty", ErrInvalidDatasourceConfig)
	}
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("%w: name is empty for %s", ErrInvalidDatasourceConfig, config.DatasourceID)
	}
	if len(config.FieldMapping) == 0 {
		return fmt.Errorf("%w: field_mapping is empty for %s", ErrInvalidDatasourceConfig, config.DatasourceID)
	}
	for canonical, sources := range config.FieldMapping {
		if len(sources) == 0 {
			return fmt.Errorf("%w: field %s of %s maps to no source paths",
				ErrInvalidDatasourceConfig, canonical, config.DatasourceID)
		}
	}
	for i, group := range config.ChunkSpec {
		if len(group.Fields) == 0 {
			return fmt.Errorf("%w: chunk group %d of %s declares no fields",
				ErrInvalidDatasourceConfig, i, config.DatasourceID)
		}
		if group.MaxChars < 0 {
			return fmt.Errorf("%w: chunk group %d of %s has negative max_chars",
				ErrInvalidDatasourceConfig, i, config.DatasourceID)
		}
	}
	return nil
}

// LookupField resolves a dot-separated path against a record's raw
// fields. Returns nil when any path segment is missing or a
// non-object value is descended into.
func LookupField(fields map[string]any, path string) any {
	segments := strings.Split(path, ".")
	var current any = fields
	for _, segment := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[segment]
		if !ok {
			return nil
		}
	}
	return current
}
