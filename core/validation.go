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

import "fmt"

// ValidateRawRecord validates a RawRecord according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Source must not be empty
//
// NOT validated:
//   - Fields (an empty document body is a valid, if useless, record;
//     the pipeline handles it by emitting zero chunks)
func ValidateRawRecord(record *RawRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRawRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRawRecord, ErrEmptyRecordID)
	}

	if record.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRawRecord, ErrEmptySource)
	}

	return nil
}

// ValidateCheckpoint validates a Checkpoint according to domain rules.
//
// Validation rules:
//   - DatasourceID must not be empty
//   - Pages and Records must not be negative
func ValidateCheckpoint(checkpoint *Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("%w: checkpoint is nil", ErrInvalidCheckpoint)
	}

	if checkpoint.DatasourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCheckpoint, ErrEmptySource)
	}

	if checkpoint.Pages < 0 || checkpoint.Records < 0 {
		return fmt.Errorf("%w: negative progress counters", ErrInvalidCheckpoint)
	}

	return nil
}
