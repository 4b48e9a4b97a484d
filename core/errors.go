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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRawRecord indicates a RawRecord failed validation.
	ErrInvalidRawRecord = errors.New("invalid raw record")

	// ErrInvalidCheckpoint indicates a Checkpoint failed validation.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")

	// ErrEmptyRecordID indicates the record ID field is empty.
	ErrEmptyRecordID = errors.New("record id cannot be empty")

	// ErrEmptySource indicates the datasource identifier is empty.
	ErrEmptySource = errors.New("datasource identifier cannot be empty")

	// ErrInvalidDatasourceConfig indicates a DatasourceConfig failed
	// validation.
	ErrInvalidDatasourceConfig = errors.New("invalid datasource config")
)
