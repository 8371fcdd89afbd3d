package classifier

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/llms"
)

// stubProvider scripts GenerateStructured responses for tests.
type stubProvider struct {
	structuredFn func(system string, messages []chat.Message) (string, error)
}

func (s *stubProvider) Generate(ctx context.Context, system string, messages []chat.Message) (string, int, error) {
	return "", 0, fmt.Errorf("not implemented")
}

func (s *stubProvider) GenerateStreaming(ctx context.Context, system string, messages []chat.Message) (<-chan llms.StreamChunk, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubProvider) GenerateStructured(ctx context.Context, system string, messages []chat.Message, schema *llms.JSONSchema) (string, int, error) {
	raw, err := s.structuredFn(system, messages)
	return raw, 0, err
}

func (s *stubProvider) GetModelName() string { return "stub" }
func (s *stubProvider) GetMaxTokens() int    { return 0 }
func (s *stubProvider) Close() error         { return nil }

var testAgents = []Candidate{
	{ID: "billing-agent", Description: "Handles billing and invoice questions"},
	{ID: "tech-support-agent", Description: "Handles technical problems and outages"},
}

func TestClassifyParsesDecision(t *testing.T) {
	provider := &stubProvider{
		structuredFn: func(system string, messages []chat.Message) (string, error) {
			return `{"userinput": "The premium features aren't working", "selected_agent": "tech-support-agent", "confidence": 0.9}`, nil
		},
	}

	c, err := NewLLMClassifier(provider)
	require.NoError(t, err)

	result, err := c.Classify(context.Background(), "The premium features aren't working", nil, testAgents)
	require.NoError(t, err)

	assert.Equal(t, "tech-support-agent", result.SelectedAgentID)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, "The premium features aren't working", result.UserInput)
	assert.False(t, result.IsUnknown())
}

func TestClassifyPromptCarriesAgentsAndHistory(t *testing.T) {
	var seenSystem string
	provider := &stubProvider{
		structuredFn: func(system string, messages []chat.Message) (string, error) {
			seenSystem = system
			return `{"userinput": "x", "selected_agent": "billing-agent", "confidence": 0.8}`, nil
		},
	}

	c, err := NewLLMClassifier(provider)
	require.NoError(t, err)

	history := []chat.Message{
		chat.NewUserMessage("My invoice is wrong"),
		chat.NewAssistantMessage("Let me pull up your invoice.", "billing-agent"),
	}

	_, err = c.Classify(context.Background(), "x", history, testAgents)
	require.NoError(t, err)

	assert.Contains(t, seenSystem, "billing-agent:Handles billing and invoice questions")
	assert.Contains(t, seenSystem, "tech-support-agent:Handles technical problems and outages")
	assert.Contains(t, seenSystem, "assistant: [billing-agent] Let me pull up your invoice.")
	assert.NotContains(t, seenSystem, SlotAgentDescriptions)
	assert.NotContains(t, seenSystem, SlotHistory)
}

// Follow-up acknowledgements must stay with the previously attributed agent.
// The heuristic lives in the prompt, so the stub applies it the way a
// well-behaved model would: last attributed assistant line wins for short
// acknowledgement turns.
func TestClassifyContinuity(t *testing.T) {
	provider := &stubProvider{
		structuredFn: func(system string, messages []chat.Message) (string, error) {
			require.Len(t, messages, 1)
			input := strings.TrimSpace(messages[0].Content)

			switch input {
			case "yes", "Yes please", "ok", "1":
				lines := strings.Split(system, "\n")
				for i := len(lines) - 1; i >= 0; i-- {
					if strings.HasPrefix(lines[i], "assistant: [") {
						id := lines[i][len("assistant: ["):]
						id = id[:strings.Index(id, "]")]
						return fmt.Sprintf(`{"userinput": %q, "selected_agent": %q, "confidence": 0.85}`, input, id), nil
					}
				}
			}
			return fmt.Sprintf(`{"userinput": %q, "selected_agent": "unknown", "confidence": 0.1}`, input), nil
		},
	}

	c, err := NewLLMClassifier(provider)
	require.NoError(t, err)

	history := []chat.Message{
		chat.NewUserMessage("The premium features aren't working"),
		chat.NewAssistantMessage("Want me to reset your subscription flags?", "tech-support-agent"),
	}

	for _, input := range []string{"Yes please", "ok", "1"} {
		result, err := c.Classify(context.Background(), input, history, testAgents)
		require.NoError(t, err)
		assert.Equal(t, "tech-support-agent", result.SelectedAgentID, "input %q", input)
	}
}

func TestClassifySchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing selected_agent", `{"userinput": "x", "confidence": 0.9}`},
		{"missing confidence", `{"userinput": "x", "selected_agent": "billing-agent"}`},
		{"confidence out of range", `{"userinput": "x", "selected_agent": "billing-agent", "confidence": 1.5}`},
		{"not JSON", `the best agent is billing-agent`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{
				structuredFn: func(system string, messages []chat.Message) (string, error) {
					return tt.raw, nil
				},
			}

			c, err := NewLLMClassifier(provider)
			require.NoError(t, err)

			_, err = c.Classify(context.Background(), "x", nil, testAgents)
			require.Error(t, err)

			var schemaErr *SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestClassifyEmptySelectionBecomesUnknown(t *testing.T) {
	provider := &stubProvider{
		structuredFn: func(system string, messages []chat.Message) (string, error) {
			return `{"userinput": "x", "selected_agent": "", "confidence": 0.2}`, nil
		},
	}

	c, err := NewLLMClassifier(provider)
	require.NoError(t, err)

	result, err := c.Classify(context.Background(), "x", nil, testAgents)
	require.NoError(t, err)
	assert.Equal(t, AgentUnknown, result.SelectedAgentID)
	assert.True(t, result.IsUnknown())
}

func TestCustomTemplateMustKeepSlots(t *testing.T) {
	provider := &stubProvider{}

	_, err := NewLLMClassifier(provider, WithSystemPrompt("Pick an agent: {{AGENT_DESCRIPTIONS}}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{HISTORY}}")

	_, err = NewLLMClassifier(provider, WithSystemPrompt("History: {{HISTORY}}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{AGENT_DESCRIPTIONS}}")

	_, err = NewLLMClassifier(provider, WithSystemPrompt("Agents: {{AGENT_DESCRIPTIONS}}\nHistory: {{HISTORY}}\nPick one."))
	require.NoError(t, err)
}

func TestCustomVariables(t *testing.T) {
	var seenSystem string
	provider := &stubProvider{
		structuredFn: func(system string, messages []chat.Message) (string, error) {
			seenSystem = system
			return `{"userinput": "x", "selected_agent": "billing-agent", "confidence": 0.8}`, nil
		},
	}

	template := "Company: {{COMPANY}}\nAgents: {{AGENT_DESCRIPTIONS}}\nHistory: {{HISTORY}}"
	c, err := NewLLMClassifier(provider,
		WithSystemPrompt(template),
		WithVariables(map[string]string{"COMPANY": "Acme Corp"}),
	)
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "x", nil, testAgents)
	require.NoError(t, err)
	assert.Contains(t, seenSystem, "Company: Acme Corp")
}

func TestClassifyRequiresAgents(t *testing.T) {
	c, err := NewLLMClassifier(&stubProvider{})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "x", nil, nil)
	require.Error(t, err)
}
