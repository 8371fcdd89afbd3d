package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/llms"
)

// classificationSchema constrains the model's decision. All three fields are
// required in every response; free-text selection parsing is not a fallback.
var classificationSchema = &llms.JSONSchema{
	Type: "object",
	Properties: map[string]llms.JSONSchema{
		"userinput": {
			Type:        "string",
			Description: "The user's latest message, echoed back",
		},
		"selected_agent": {
			Type:        "string",
			Description: "Identifier of the selected agent, or \"unknown\"",
		},
		"confidence": {
			Type:        "number",
			Description: "Selection confidence between 0 and 1",
			Minimum:     float64Ptr(0),
			Maximum:     float64Ptr(1),
		},
	},
	Required:             []string{"userinput", "selected_agent", "confidence"},
	AdditionalProperties: boolPtr(false),
}

// classificationOutput mirrors the schema on the wire.
type classificationOutput struct {
	UserInput     string   `json:"userinput"`
	SelectedAgent *string  `json:"selected_agent"`
	Confidence    *float64 `json:"confidence"`
}

// LLMClassifier implements Classifier over an llms.Provider.
type LLMClassifier struct {
	provider  llms.Provider
	template  string
	variables map[string]string
	logger    *slog.Logger
}

type Option func(*LLMClassifier)

// WithSystemPrompt replaces the default prompt template. The replacement
// must keep both mandatory slots; NewLLMClassifier rejects it otherwise.
func WithSystemPrompt(template string) Option {
	return func(c *LLMClassifier) {
		if template != "" {
			c.template = template
		}
	}
}

// WithVariables registers extra template variables substituted as {{NAME}}.
func WithVariables(variables map[string]string) Option {
	return func(c *LLMClassifier) {
		c.variables = variables
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *LLMClassifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewLLMClassifier(provider llms.Provider, opts ...Option) (*LLMClassifier, error) {
	if provider == nil {
		return nil, fmt.Errorf("classifier requires an llm provider")
	}

	c := &LLMClassifier{
		provider: provider,
		template: defaultPromptTemplate,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := validateTemplate(c.template); err != nil {
		return nil, err
	}

	return c, nil
}

// Classify renders the routing prompt and requests a schema-constrained
// decision from the model.
func (c *LLMClassifier) Classify(ctx context.Context, userInput string, history []chat.Message, agents []Candidate) (*Result, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("no agents to classify against")
	}

	system := renderPrompt(c.template, agents, history, c.variables)

	raw, tokens, err := c.provider.GenerateStructured(ctx, system, []chat.Message{
		chat.NewUserMessage(userInput),
	}, classificationSchema)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	result, err := parseResult(raw, userInput)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("turn classified",
		"selected_agent", result.SelectedAgentID,
		"confidence", result.Confidence,
		"tokens", tokens)

	return result, nil
}

// parseResult validates the model's raw JSON against the classification
// contract. Anything malformed becomes a SchemaError.
func parseResult(raw, userInput string) (*Result, error) {
	var out classificationOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &SchemaError{Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if out.SelectedAgent == nil {
		return nil, &SchemaError{Raw: raw, Err: fmt.Errorf("missing required field selected_agent")}
	}
	if out.Confidence == nil {
		return nil, &SchemaError{Raw: raw, Err: fmt.Errorf("missing required field confidence")}
	}
	if *out.Confidence < 0 || *out.Confidence > 1 {
		return nil, &SchemaError{Raw: raw, Err: fmt.Errorf("confidence %v outside [0, 1]", *out.Confidence)}
	}

	selected := strings.TrimSpace(*out.SelectedAgent)
	if selected == "" {
		selected = AgentUnknown
	}

	echoed := out.UserInput
	if echoed == "" {
		echoed = userInput
	}

	return &Result{
		SelectedAgentID: selected,
		Confidence:      *out.Confidence,
		UserInput:       echoed,
	}, nil
}

func float64Ptr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool          { return &b }
