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

// State is the run state machine position. A run loops through
// EXTRACTING, PROCESSING and PERSISTING once per page.
type State int

const (
	StateInit State = iota
	StateExtracting
	StateProcessing
	StatePersisting
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:       "INIT",
	StateExtracting: "EXTRACTING",
	StateProcessing: "PROCESSING",
	StatePersisting: "PERSISTING",
	StateDone:       "DONE",
	StateFailed:     "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
