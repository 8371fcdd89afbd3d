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
	"errors"
	"fmt"
)

// ErrNoAgents is fatal at construction time: an orchestrator with an empty
// registry can never route anything.
var ErrNoAgents = errors.New("no agents registered")

// UnresolvedAgentError reports a classifier selection that matches no
// registered agent while no fallback is configured.
type UnresolvedAgentError struct {
	Selected string
}

func (e *UnresolvedAgentError) Error() string {
	return fmt.Sprintf("selected agent %q is not registered and no fallback is configured", e.Selected)
}

// AgentInvocationError reports a failure inside the resolved agent's
// Process call. Caught at the orchestrator boundary; the turn is not
// recorded into history.
type AgentInvocationError struct {
	AgentID string
	Err     error
}

func (e *AgentInvocationError) Error() string {
	return fmt.Sprintf("agent %s invocation failed: %v", e.AgentID, e.Err)
}

func (e *AgentInvocationError) Unwrap() error {
	return e.Err
}

// StreamIntegrityError reports a chunk stream that terminated abnormally
// mid-accumulation. The partial accumulation is never recorded as history.
type StreamIntegrityError struct {
	AgentID string
	Err     error
}

func (e *StreamIntegrityError) Error() string {
	return fmt.Sprintf("agent %s stream terminated abnormally: %v", e.AgentID, e.Err)
}

func (e *StreamIntegrityError) Unwrap() error {
	return e.Err
}
