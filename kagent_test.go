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


package kagent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantumByte-01/kagent/index"
	"github.com/QuantumByte-01/kagent/storage"
	"github.com/QuantumByte-01/kagent/storage/memory"
)

func testIndexServer(t *testing.T, docs int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_pit"):
			fmt.Fprint(w, `{"id": "pit-e2e"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/_pit":
			fmt.Fprint(w, `{"succeeded": true}`)
		case r.Method == http.MethodPost && r.URL.Path == "/_search":
			var req index.SearchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			start := 0
			if len(req.SearchAfter) == 1 {
				require.NoError(t, json.Unmarshal(req.SearchAfter[0], &start))
			}
			end := start + req.Size
			if end > docs {
				end = docs
			}
			var hits []string
			for i := start; i < end; i++ {
				hits = append(hits, fmt.Sprintf(
					`{"_id": "rec-%d", "_source": {"id": "rec-%d",
						"name": "Dataset %d", "description": "About dataset %d."},
						"sort": [%d]}`, i, i, i, i, i+1))
			}
			fmt.Fprintf(w, `{"hits": {"hits": [%s]}}`, strings.Join(hits, ","))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config := `datasource_id: openneuro
name: OpenNeuro
field_mapping:
  title:
    - name
  description:
    - description
filter_schema: []
chunk_spec:
  - fields:
      - title
      - description
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openneuro.yaml"), []byte(config), 0o644))
	return dir
}

func TestHarvester_EndToEnd(t *testing.T) {
	server := testIndexServer(t, 5)
	store := memory.NewObjectStore()

	indexConfig := index.DefaultConfig()
	indexConfig.BaseURL = server.URL
	indexConfig.RequestsPerSecond = 0

	harvester, err := NewHarvester(context.Background(),
		filepath.Join(t.TempDir(), "checkpoints"),
		"", // bucket unused with a substituted store
		WithIndexConfig(indexConfig),
		WithObjectStore(store),
		WithPageSize(2),
	)
	require.NoError(t, err)
	defer harvester.Close()

	require.NoError(t, harvester.LoadConfigs(writeTestConfig(t)))
	assert.Equal(t, []string{"openneuro"}, harvester.Registry().IDs())

	runner, err := harvester.NewRunner()
	require.NoError(t, err)
	defer runner.Release()

	summary, err := runner.Run(context.Background(), "openneuro", "datasets")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Processed)

	processed, err := store.List(context.Background(), storage.DatasourceProcessedPrefix("openneuro"))
	require.NoError(t, err)
	assert.Len(t, processed, 5)

	payload, err := store.Read(context.Background(), storage.ProcessedRecordPath("openneuro", "rec-0"))
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(payload, &record))
	assert.Equal(t, "rec-0", record["id"])
}

func TestHarvester_BadIndexConfig(t *testing.T) {
	_, err := NewHarvester(context.Background(),
		filepath.Join(t.TempDir(), "checkpoints"),
		"",
		WithIndexConfig(&index.Config{}),
		WithObjectStore(memory.NewObjectStore()),
	)
	assert.Error(t, err)
}
