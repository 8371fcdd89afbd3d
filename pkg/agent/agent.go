// Package agent defines the handler contract the orchestrator routes turns
// to, the deterministic identifier derivation used to match classifier
// selections back to concrete handlers, and an LLM-backed implementation.
package agent

import (
	"context"
	"strings"
	"unicode"

	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/llms"
)

// Request is one turn handed to an agent. History is read-only context;
// recording the new exchange is the orchestrator's job, never the agent's.
type Request struct {
	Input     string
	UserID    string
	SessionID string
	History   []chat.Message
	Params    chat.Params
}

// Agent handles a turn and replies with a single complete message.
type Agent interface {
	// ID is the registry identifier, derived from the name via DeriveID.
	ID() string
	Name() string

	// Description tells the classifier what this agent handles.
	Description() string

	// SaveChat reports whether this agent's exchanges should be recorded
	// into conversation history.
	SaveChat() bool

	Process(ctx context.Context, req *Request) (string, error)
}

// StreamingAgent additionally replies chunk by chunk. The returned channel
// carries text chunks and is closed after a terminal done or error chunk.
type StreamingAgent interface {
	Agent
	ProcessStreaming(ctx context.Context, req *Request) (<-chan llms.StreamChunk, error)
}

// DeriveID derives a registry identifier from a human name: lowercase,
// whitespace runs collapsed to single hyphens, everything else that is not
// alphanumeric or a hyphen stripped. Deterministic and idempotent, so a
// derived identifier maps to itself.
func DeriveID(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(lowered))

	inSpace := false
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r):
			inSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			if inSpace {
				b.WriteByte('-')
				inSpace = false
			}
			b.WriteRune(r)
		}
	}

	return b.String()
}
