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

package config

import "fmt"

// OrchestratorConfig configures routing policy.
type OrchestratorConfig struct {
	// FallbackAgent handles turns the classifier cannot route. Empty means
	// unroutable turns get a terminal no-agent response instead.
	FallbackAgent string `yaml:"fallback_agent,omitempty" json:"fallback_agent,omitempty" jsonschema:"title=Fallback Agent,description=Agent for unroutable turns (empty = terminal no-agent response)"`

	// NoAgentMessage is the reply text used when no agent can be resolved
	// and no fallback agent is configured.
	NoAgentMessage string `yaml:"no_agent_message,omitempty" json:"no_agent_message,omitempty" jsonschema:"title=No Agent Message,description=Reply when no agent can be resolved"`

	// ConfidenceThreshold routes classifications below it to the fallback
	// policy. Zero disables the check.
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty" json:"confidence_threshold,omitempty" jsonschema:"title=Confidence Threshold,description=Minimum classifier confidence (0 = disabled),minimum=0,maximum=1"`

	// MaxHistoryMessages caps how many recent messages are shown to the
	// classifier and agents. Zero means no cap.
	MaxHistoryMessages int `yaml:"max_history_messages,omitempty" json:"max_history_messages,omitempty" jsonschema:"title=Max History Messages,description=Recent message cap for prompts (0 = unlimited),default=20"`

	// MaxHistoryTokens caps the token budget of history shown to the
	// classifier and agents. Zero disables token counting.
	MaxHistoryTokens int `yaml:"max_history_tokens,omitempty" json:"max_history_tokens,omitempty" jsonschema:"title=Max History Tokens,description=Token budget for prompt history (0 = disabled)"`
}

// SetDefaults applies defaults.
func (c *OrchestratorConfig) SetDefaults() {
	if c.NoAgentMessage == "" {
		c.NoAgentMessage = "I'm not sure which of our services can help with that. Could you rephrase your request?"
	}
	if c.MaxHistoryMessages == 0 {
		c.MaxHistoryMessages = 20
	}
}

// Validate checks the orchestrator configuration.
func (c *OrchestratorConfig) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1")
	}
	if c.MaxHistoryMessages < 0 {
		return fmt.Errorf("max_history_messages cannot be negative")
	}
	if c.MaxHistoryTokens < 0 {
		return fmt.Errorf("max_history_tokens cannot be negative")
	}
	return nil
}
