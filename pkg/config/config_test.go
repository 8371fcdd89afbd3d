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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
llms:
  default:
    type: anthropic
    api_key: test-key
agents:
  billing:
    description: Handles billing and invoice questions
  tech-support:
    description: Handles technical problems and outages
`

func TestParseMinimal(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "switchboard", cfg.Name)
	assert.Len(t, cfg.Agents, 2)

	billing := cfg.Agents["billing"]
	require.NotNil(t, billing)
	assert.Equal(t, "billing", billing.Name)
	assert.Equal(t, "default", billing.LLM)
	assert.True(t, *billing.Streaming)
	assert.True(t, *billing.SaveChat)

	assert.Equal(t, "default", cfg.Classifier.LLM)
	assert.Equal(t, 20, cfg.Orchestrator.MaxHistoryMessages)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLMs["default"].Model)
}

func TestParseRequiresAgents(t *testing.T) {
	_, err := Parse([]byte(`
llms:
  default:
    api_key: test-key
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one agent")
}

func TestParseRequiresAgentDescription(t *testing.T) {
	_, err := Parse([]byte(`
llms:
  default:
    api_key: test-key
agents:
  billing: {}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}

func TestParseRejectsUnknownLLMReference(t *testing.T) {
	_, err := Parse([]byte(`
llms:
  default:
    api_key: test-key
agents:
  billing:
    description: Billing questions
    llm: missing
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown llm "missing"`)
}

func TestParseRejectsUnknownFallbackAgent(t *testing.T) {
	_, err := Parse([]byte(`
llms:
  default:
    api_key: test-key
agents:
  billing:
    description: Billing questions
orchestrator:
  fallback_agent: concierge
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback_agent")
}

func TestParseEnvExpansion(t *testing.T) {
	t.Setenv("SB_TEST_KEY", "secret-from-env")

	cfg, err := Parse([]byte(`
llms:
  default:
    api_key: ${SB_TEST_KEY}
agents:
  billing:
    description: Billing questions
`))
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.LLMs["default"].APIKey)
}

func TestParseEnvDefaultSyntax(t *testing.T) {
	cfg, err := Parse([]byte(`
name: ${SB_UNSET_NAME:-fallback-name}
llms:
  default:
    api_key: test-key
agents:
  billing:
    description: Billing questions
`))
	require.NoError(t, err)
	assert.Equal(t, "fallback-name", cfg.Name)
}

func TestOrchestratorConfidenceBounds(t *testing.T) {
	_, err := Parse([]byte(`
llms:
  default:
    api_key: test-key
agents:
  billing:
    description: Billing questions
orchestrator:
  confidence_threshold: 1.5
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence_threshold")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SB_EXPAND_A", "alpha")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${SB_EXPAND_A}", "alpha"},
		{"$SB_EXPAND_A", "alpha"},
		{"${SB_EXPAND_MISSING:-beta}", "beta"},
		{"${SB_EXPAND_A:-beta}", "alpha"},
		{"pre-${SB_EXPAND_A}-post", "pre-alpha-post"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandEnv(tt.in), "input %q", tt.in)
	}
}
