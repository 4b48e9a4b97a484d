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


package storage

// Object path prefixes. Raw records are immutable once written;
// preprocessed objects are replaced on every run.
const (
	RawPrefix          = "raw_dataset"
	PreprocessedPrefix = "preprocessed_data"
)

// RawRecordPath returns the object path for a raw record.
func RawRecordPath(datasourceID, recordID string) string {
	return RawPrefix + "/" + datasourceID + "/" + recordID + ".json"
}

// ProcessedRecordPath returns the object path for a processed record.
func ProcessedRecordPath(datasourceID, recordID string) string {
	return PreprocessedPrefix + "/" + datasourceID + "/" + recordID + ".json"
}

// DatasourceRawPrefix returns the listing prefix for one datasource's
// raw records.
func DatasourceRawPrefix(datasourceID string) string {
	return RawPrefix + "/" + datasourceID + "/"
}

// DatasourceProcessedPrefix returns the listing prefix for one
// datasource's processed records.
func DatasourceProcessedPrefix(datasourceID string) string {
	return PreprocessedPrefix + "/" + datasourceID + "/"
}
