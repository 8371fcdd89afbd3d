// Package llms implements the LLM provider clients used by agents and the
// classifier. Providers speak the vendor HTTP APIs directly over the shared
// retrying HTTP client.
package llms

import (
	"context"

	"github.com/switchboard-dev/switchboard/pkg/chat"
)

// StreamChunk is one unit of a streamed provider response.
type StreamChunk struct {
	Type   string // "text", "done" or "error"
	Text   string
	Tokens int
	Error  error
}

const (
	ChunkTypeText  = "text"
	ChunkTypeDone  = "done"
	ChunkTypeError = "error"
)

// JSONSchema describes the shape of a structured response.
type JSONSchema struct {
	Type                 string                `json:"type"`
	Properties           map[string]JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema           `json:"items,omitempty"`
	Required             []string              `json:"required,omitempty"`
	Enum                 []string              `json:"enum,omitempty"`
	Description          string                `json:"description,omitempty"`
	Minimum              *float64              `json:"minimum,omitempty"`
	Maximum              *float64              `json:"maximum,omitempty"`
	AdditionalProperties *bool                 `json:"additionalProperties,omitempty"`
}

// Provider is a chat completion client.
//
// Generate returns the full response text and the total tokens used.
// GenerateStreaming returns a channel of chunks; the channel is closed after
// a terminal "done" or "error" chunk. GenerateStructured constrains the
// response to the given schema and returns the raw JSON text.
type Provider interface {
	Generate(ctx context.Context, system string, messages []chat.Message) (string, int, error)
	GenerateStreaming(ctx context.Context, system string, messages []chat.Message) (<-chan StreamChunk, error)
	GenerateStructured(ctx context.Context, system string, messages []chat.Message, schema *JSONSchema) (string, int, error)

	GetModelName() string
	GetMaxTokens() int
	Close() error
}
