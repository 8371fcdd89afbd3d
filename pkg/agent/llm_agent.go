package agent

import (
	"context"
	"fmt"

	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/config"
	"github.com/switchboard-dev/switchboard/pkg/llms"
)

// LLMAgent answers turns with a single provider call. Its instruction is
// the system prompt; the turn history rides along as provider messages.
type LLMAgent struct {
	id          string
	name        string
	description string
	instruction string
	saveChat    bool
	streaming   bool
	provider    llms.Provider
}

var (
	_ Agent          = (*LLMAgent)(nil)
	_ StreamingAgent = (*LLMAgent)(nil)
)

func NewLLMAgent(cfg *config.AgentConfig, provider llms.Provider) (*LLMAgent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("agent config is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("agent %q requires an llm provider", cfg.Name)
	}

	id := DeriveID(cfg.Name)
	if id == "" {
		return nil, fmt.Errorf("agent name %q derives an empty identifier", cfg.Name)
	}

	return &LLMAgent{
		id:          id,
		name:        cfg.Name,
		description: cfg.Description,
		instruction: cfg.Instruction,
		saveChat:    cfg.SaveChat == nil || *cfg.SaveChat,
		streaming:   cfg.Streaming == nil || *cfg.Streaming,
		provider:    provider,
	}, nil
}

func (a *LLMAgent) ID() string          { return a.id }
func (a *LLMAgent) Name() string        { return a.name }
func (a *LLMAgent) Description() string { return a.description }
func (a *LLMAgent) SaveChat() bool      { return a.saveChat }

// Streaming reports whether this agent prefers chunked replies.
func (a *LLMAgent) Streaming() bool { return a.streaming }

func (a *LLMAgent) Process(ctx context.Context, req *Request) (string, error) {
	text, _, err := a.provider.Generate(ctx, a.instruction, a.buildMessages(req))
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", a.id, err)
	}
	return text, nil
}

func (a *LLMAgent) ProcessStreaming(ctx context.Context, req *Request) (<-chan llms.StreamChunk, error) {
	ch, err := a.provider.GenerateStreaming(ctx, a.instruction, a.buildMessages(req))
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.id, err)
	}
	return ch, nil
}

func (a *LLMAgent) buildMessages(req *Request) []chat.Message {
	messages := make([]chat.Message, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, chat.NewUserMessage(req.Input))
	return messages
}
