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

import (
	"fmt"
	"os"
)

// ProviderType identifies the LLM provider implementation.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
)

// LLMProviderConfig configures one LLM provider client. Inference parameters
// (max tokens, temperature, top_p, stop sequences) are passed through to the
// provider API untouched; switchboard does not interpret them.
type LLMProviderConfig struct {
	// Type of provider (anthropic, openai).
	Type ProviderType `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"title=Type,description=Provider type,enum=anthropic,enum=openai,default=anthropic"`

	// Model name (e.g. "claude-sonnet-4-20250514", "gpt-4o").
	Model string `yaml:"model,omitempty" json:"model,omitempty" jsonschema:"title=Model,description=Model identifier"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key,description=API key (use ${ENV_VAR})"`

	// Host overrides the default API endpoint.
	Host string `yaml:"host,omitempty" json:"host,omitempty" jsonschema:"title=Host,description=Custom API base URL"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" jsonschema:"title=Max Tokens,description=Maximum tokens to generate,minimum=1,default=4096"`

	// Temperature for generation.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" jsonschema:"title=Temperature,description=Sampling temperature,minimum=0,maximum=2,default=0.7"`

	// TopP nucleus-sampling cutoff.
	TopP *float64 `yaml:"top_p,omitempty" json:"top_p,omitempty" jsonschema:"title=Top P,description=Nucleus sampling cutoff,minimum=0,maximum=1"`

	// StopSequences halt generation when emitted by the model.
	StopSequences []string `yaml:"stop_sequences,omitempty" json:"stop_sequences,omitempty" jsonschema:"title=Stop Sequences,description=Generation stop sequences"`

	// Timeout for a single request, in seconds.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,description=Request timeout in seconds,default=120"`

	// MaxRetries for rate-limited or failed requests.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty" jsonschema:"title=Max Retries,description=Retry attempts for failed requests,default=3"`

	// RetryDelay is the base backoff delay, in seconds.
	RetryDelay int `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty" jsonschema:"title=Retry Delay,description=Base retry delay in seconds,default=2"`
}

// SetDefaults applies default values, detecting the provider and API key
// from the environment when unset.
func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = detectProviderFromEnv()
	}

	if c.Model == "" {
		switch c.Type {
		case ProviderAnthropic:
			c.Model = "claude-sonnet-4-20250514"
		case ProviderOpenAI:
			c.Model = "gpt-4o"
		}
	}

	if c.APIKey == "" {
		c.APIKey = ProviderAPIKeyFromEnv(c.Type)
	}

	if c.Temperature == nil {
		temp := 0.7
		c.Temperature = &temp
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2
	}
}

// Validate checks the provider configuration.
func (c *LLMProviderConfig) Validate() error {
	switch c.Type {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid provider type %q (valid: anthropic, openai)", c.Type)
	}

	if c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q", c.Type)
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		return fmt.Errorf("top_p must be between 0 and 1")
	}

	return nil
}

// detectProviderFromEnv picks a provider based on which API key is set.
func detectProviderFromEnv() ProviderType {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return ProviderAnthropic
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	return ProviderAnthropic
}

// ProviderAPIKeyFromEnv returns the conventional API key env var value for a
// provider type.
func ProviderAPIKeyFromEnv(t ProviderType) string {
	switch t {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
