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


// Package preprocess turns raw index records into processed records:
// normalized text chunks, a sparse metadata filter and the URLs found
// along the way.
//
// Behavior differences between datasources are expressed as
// DatasourceConfig data held in a Registry, never as per-source code.
// The Transformer is a pure function of (record, config): reprocessing
// the same record with the same config yields a byte-identical
// processed record, which is what makes storage overwrites idempotent.
package preprocess
