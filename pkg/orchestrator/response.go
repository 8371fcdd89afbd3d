// Copyright 2026 The Switchboard Authors
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

package orchestrator

import (
	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/streaming"
)

// Response is the normalized envelope every turn produces, failed or not.
// Callers must check Streaming before treating the output as a plain
// string: when Streaming is true the reply arrives through Stream and
// Output is empty.
type Response struct {
	UserInput string
	AgentID   string
	AgentName string
	UserID    string
	SessionID string
	Params    chat.Params

	Streaming bool

	// Output is the complete reply text for non-streaming turns.
	Output string

	// Stream carries the reply for streaming turns. The caller owns
	// consumption; the accumulator captures the canonical final text.
	Stream *streaming.Accumulator

	// Failed marks a turn that degraded to a structured failure. Cause
	// holds the typed error behind it.
	Failed bool
	Cause  error
}

// Text returns the complete reply text, waiting for stream completion on
// streaming turns.
func (r *Response) Text() (string, error) {
	if !r.Streaming {
		return r.Output, nil
	}
	<-r.Stream.Done()
	return r.Stream.Text()
}
