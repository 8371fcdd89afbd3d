package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Storage persists per-session conversation history. A conversation is keyed
// by user and session; histories for different sessions are never shared.
type Storage interface {
	// Fetch returns the conversation for the given user and session, oldest
	// message first. A session with no history yields an empty slice, not an
	// error. The returned slice is a copy the caller may keep.
	Fetch(ctx context.Context, userID, sessionID string) ([]Message, error)

	// Append adds messages to the end of a conversation, creating it if
	// needed.
	Append(ctx context.Context, userID, sessionID string, messages ...Message) error
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// InMemoryStorage keeps conversations in process memory. Useful for tests and
// single-process deployments; history does not survive a restart.
type InMemoryStorage struct {
	mu            sync.RWMutex
	conversations map[string][]Message
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		conversations: make(map[string][]Message),
	}
}

func conversationKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

func (s *InMemoryStorage) Fetch(ctx context.Context, userID, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.conversations[conversationKey(userID, sessionID)]
	out := make([]Message, len(history))
	copy(out, history)
	return out, nil
}

func (s *InMemoryStorage) Append(ctx context.Context, userID, sessionID string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversationKey(userID, sessionID)
	s.conversations[key] = append(s.conversations[key], messages...)
	return nil
}

// Len reports the number of messages stored for a session.
func (s *InMemoryStorage) Len(userID, sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.conversations[conversationKey(userID, sessionID)])
}

var _ Storage = (*InMemoryStorage)(nil)
