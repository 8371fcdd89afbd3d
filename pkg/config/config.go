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

// Package config defines the YAML configuration surface of switchboard and
// the loader that reads, expands and validates it.
package config

import (
	"fmt"
	"sort"
)

// Config is the root configuration.
type Config struct {
	// Name identifies this deployment (used in logs and the HTTP surface).
	Name string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Name,description=Deployment name"`

	// LLMs maps provider names to provider configurations.
	LLMs map[string]*LLMProviderConfig `yaml:"llms,omitempty" json:"llms,omitempty" jsonschema:"title=LLM Providers,description=Named LLM provider configurations"`

	// Agents maps agent names to agent configurations.
	Agents map[string]*AgentConfig `yaml:"agents,omitempty" json:"agents,omitempty" jsonschema:"title=Agents,description=Named agent configurations"`

	// Classifier configures the routing classifier.
	Classifier ClassifierConfig `yaml:"classifier,omitempty" json:"classifier,omitempty" jsonschema:"title=Classifier,description=Routing classifier configuration"`

	// Orchestrator configures routing policy.
	Orchestrator OrchestratorConfig `yaml:"orchestrator,omitempty" json:"orchestrator,omitempty" jsonschema:"title=Orchestrator,description=Routing policy configuration"`

	// Server configures the HTTP surface.
	Server ServerConfig `yaml:"server,omitempty" json:"server,omitempty" jsonschema:"title=Server,description=HTTP server configuration"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" jsonschema:"title=Logging,description=Logging configuration"`
}

// SetDefaults applies defaults recursively.
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "switchboard"
	}

	if len(c.LLMs) == 0 {
		c.LLMs = map[string]*LLMProviderConfig{
			"default": {},
		}
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}

	for name, agent := range c.Agents {
		agent.SetDefaults(name, c.defaultLLMName())
	}

	c.Classifier.SetDefaults(c.defaultLLMName())
	c.Orchestrator.SetDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks the configuration. Called after SetDefaults.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent must be configured")
	}
	for name, agent := range c.Agents {
		if err := agent.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", name, err)
		}
		if _, ok := c.LLMs[agent.LLM]; !ok {
			return fmt.Errorf("agent %q references unknown llm %q", name, agent.LLM)
		}
	}

	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if _, ok := c.LLMs[c.Classifier.LLM]; !ok {
		return fmt.Errorf("classifier references unknown llm %q", c.Classifier.LLM)
	}

	if err := c.Orchestrator.Validate(); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	if c.Orchestrator.FallbackAgent != "" {
		if _, ok := c.Agents[c.Orchestrator.FallbackAgent]; !ok {
			return fmt.Errorf("orchestrator fallback_agent %q is not a configured agent", c.Orchestrator.FallbackAgent)
		}
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}

// AgentNames returns configured agent names, sorted for stable iteration.
func (c *Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultLLMName picks the provider name agents fall back to when they don't
// name one: "default" if present, otherwise the only configured provider.
func (c *Config) defaultLLMName() string {
	if _, ok := c.LLMs["default"]; ok {
		return "default"
	}
	if len(c.LLMs) == 1 {
		for name := range c.LLMs {
			return name
		}
	}
	return "default"
}

// BoolPtr returns a pointer to b. Used for optional boolean config fields.
func BoolPtr(b bool) *bool { return &b }
