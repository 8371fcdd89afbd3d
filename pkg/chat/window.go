package chat

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens for a specific model's encoding. Encodings are
// cached process-wide because initialization is expensive.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter creates a counter for the given model, falling back to the
// cl100k_base encoding for models tiktoken does not know about (Claude and
// friends approximate well enough for budgeting purposes).
func NewTokenCounter(model string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()

	if exists {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the token count for text.
func (tc *TokenCounter) Count(text string) int {
	return len(tc.encoding.Encode(text, nil, nil))
}

// countMessage includes the per-message role overhead the chat formats add.
func (tc *TokenCounter) countMessage(msg Message) int {
	const tokensPerMessage = 3
	return tokensPerMessage +
		len(tc.encoding.Encode(string(msg.Role), nil, nil)) +
		len(tc.encoding.Encode(msg.Content, nil, nil))
}

// Window trims a history before it is handed to the classifier or an agent.
// MaxMessages caps the number of recent messages kept; MaxTokens caps the
// token budget using the counter. Zero disables the respective limit.
type Window struct {
	Counter     *TokenCounter
	MaxMessages int
	MaxTokens   int
}

// Apply returns the suffix of messages that fits both limits, preserving
// order. Selection walks from the most recent message backwards.
func (w Window) Apply(messages []Message) []Message {
	out := messages

	if w.MaxMessages > 0 && len(out) > w.MaxMessages {
		out = out[len(out)-w.MaxMessages:]
	}

	if w.MaxTokens > 0 && w.Counter != nil {
		budget := w.MaxTokens - 3 // reply priming overhead
		total := 0
		start := len(out)
		for i := len(out) - 1; i >= 0; i-- {
			cost := w.Counter.countMessage(out[i])
			if total+cost > budget {
				break
			}
			total += cost
			start = i
		}
		out = out[start:]
	}

	result := make([]Message, len(out))
	copy(result, out)
	return result
}
