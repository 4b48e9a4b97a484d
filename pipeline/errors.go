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


package pipeline

import "errors"

var (
	// ErrStorageWrite indicates a payload could not be written after
	// exhausting retries. Fails the run.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrExtractorRequired indicates a Runner was built without an
	// extractor.
	ErrExtractorRequired = errors.New("extractor is required")

	// ErrRegistryRequired indicates a Runner was built without a
	// datasource registry.
	ErrRegistryRequired = errors.New("datasource registry is required")

	// ErrStoreRequired indicates a Runner was built without an object
	// store.
	ErrStoreRequired = errors.New("object store is required")
)
