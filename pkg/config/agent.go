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

// AgentConfig configures one LLM-backed agent.
type AgentConfig struct {
	// Name shown to users. Defaults to the map key.
	Name string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Name,description=Agent display name"`

	// Description tells the classifier what this agent handles. Routing
	// quality depends directly on how discriminative this text is.
	Description string `yaml:"description" json:"description" jsonschema:"title=Description,description=What this agent handles (used by the classifier)"`

	// Instruction is the agent's system prompt.
	Instruction string `yaml:"instruction,omitempty" json:"instruction,omitempty" jsonschema:"title=Instruction,description=System prompt for the agent"`

	// LLM names the provider from the llms section. Defaults to "default".
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"title=LLM,description=Provider name from the llms section,default=default"`

	// Streaming enables chunked replies for this agent.
	Streaming *bool `yaml:"streaming,omitempty" json:"streaming,omitempty" jsonschema:"title=Streaming,description=Stream replies chunk by chunk,default=true"`

	// SaveChat controls whether this agent's exchanges are recorded into
	// conversation history.
	SaveChat *bool `yaml:"save_chat,omitempty" json:"save_chat,omitempty" jsonschema:"title=Save Chat,description=Record exchanges into history,default=true"`
}

// SetDefaults applies defaults. key is the agent's map key in the config,
// defaultLLM the provider name to fall back to.
func (c *AgentConfig) SetDefaults(key, defaultLLM string) {
	if c.Name == "" {
		c.Name = key
	}
	if c.LLM == "" {
		c.LLM = defaultLLM
	}
	if c.Streaming == nil {
		c.Streaming = BoolPtr(true)
	}
	if c.SaveChat == nil {
		c.SaveChat = BoolPtr(true)
	}
}

// Validate checks the agent configuration.
func (c *AgentConfig) Validate() error {
	if c.Description == "" {
		return fmt.Errorf("description is required (the classifier routes on it)")
	}
	return nil
}

// ClassifierConfig configures the routing classifier.
type ClassifierConfig struct {
	// LLM names the provider from the llms section. Defaults to "default".
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"title=LLM,description=Provider name from the llms section,default=default"`

	// SystemPrompt replaces the built-in classification prompt template.
	// A replacement must keep the {{AGENT_DESCRIPTIONS}} and {{HISTORY}}
	// slots and the instruction to answer with a structured decision.
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty" jsonschema:"title=System Prompt,description=Custom classification prompt template"`

	// Variables are extra template variables substituted into the prompt.
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty" jsonschema:"title=Variables,description=Additional template variables"`
}

// SetDefaults applies defaults.
func (c *ClassifierConfig) SetDefaults(defaultLLM string) {
	if c.LLM == "" {
		c.LLM = defaultLLM
	}
}

// Validate checks the classifier configuration.
func (c *ClassifierConfig) Validate() error {
	return nil
}
