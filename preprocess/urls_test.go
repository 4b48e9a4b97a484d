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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "no urls",
			input: "just text, no links here",
			want:  nil,
		},
		{
			name:  "bare url",
			input: "data at https://openneuro.org/datasets/ds000001 today",
			want:  []string{"https://openneuro.org/datasets/ds000001"},
		},
		{
			name:  "repeated bare and markdown dedup to one",
			input: "http://x.org twice http://x.org and [linked](http://x.org) once more",
			want:  []string{"http://x.org"},
		},
		{
			name:  "trailing slash stays distinct",
			input: "http://x.org and http://x.org/",
			want:  []string{"http://x.org", "http://x.org/"},
		},
		{
			name:  "scheme case stays distinct",
			input: "http://x.org and https://x.org",
			want:  []string{"http://x.org", "https://x.org"},
		},
		{
			name:  "trailing sentence punctuation trimmed",
			input: "see https://example.org/data. Then https://example.org/more,",
			want:  []string{"https://example.org/data", "https://example.org/more"},
		},
		{
			name:  "markdown destination without bare copy",
			input: "[DANDI archive](https://dandiarchive.org/dandiset/000003)",
			want:  []string{"https://dandiarchive.org/dandiset/000003"},
		},
		{
			name:  "multiple distinct urls keep order",
			input: "a http://a.org then b http://b.org then a again http://a.org",
			want:  []string{"http://a.org", "http://b.org"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURLs(tt.input))
		})
	}
}
