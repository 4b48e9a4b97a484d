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

import "errors"

var (
	// ErrUnknownDatasource indicates no config is registered for the
	// requested datasource ID.
	ErrUnknownDatasource = errors.New("unknown datasource")

	// ErrRecordProcessing indicates one record's transform failed.
	// Callers skip the record and record the failure; it never aborts
	// a run.
	ErrRecordProcessing = errors.New("record processing failed")
)
