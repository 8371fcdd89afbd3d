// Package chat holds the conversation data model shared by the classifier,
// agents and the orchestrator: messages, the per-session storage contract,
// typed additional parameters and token-budget history windowing.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn entry in a conversation. Assistant messages carry
// the identifier of the agent that produced them so the classifier can see
// agent continuity across turns.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// AgentID attributes an assistant message to a registered agent.
	// Empty for user messages.
	AgentID string `json:"agent_id,omitempty"`

	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message attributed to agentID.
func NewAssistantMessage(content, agentID string) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		AgentID:   agentID,
		Timestamp: time.Now(),
	}
}

// Transcript renders a history the way the classifier prompt expects it:
// one line per message, assistant lines prefixed with the attributed agent
// identifier in brackets. The prefix is not decorative: the continuity
// instruction in the classifier prompt depends on it.
//
//	user: The premium features aren't working
//	assistant: [tech-support-agent] Let's check your subscription first.
func Transcript(messages []Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch msg.Role {
		case RoleAssistant:
			if msg.AgentID != "" {
				fmt.Fprintf(&sb, "assistant: [%s] %s", msg.AgentID, msg.Content)
			} else {
				fmt.Fprintf(&sb, "assistant: %s", msg.Content)
			}
		default:
			fmt.Fprintf(&sb, "%s: %s", msg.Role, msg.Content)
		}
	}
	return sb.String()
}

// LastAttributedAgent returns the agent identifier of the most recent
// assistant message that carries one, or "" if the history has none.
func LastAttributedAgent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant && messages[i].AgentID != "" {
			return messages[i].AgentID
		}
	}
	return ""
}
