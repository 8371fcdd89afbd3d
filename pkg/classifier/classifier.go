// Package classifier selects the best-suited agent for a conversational
// turn. The LLM-backed implementation renders a routing prompt over the
// registered agent descriptions and the attributed history, then requests a
// schema-constrained decision from the model.
package classifier

import (
	"context"
	"fmt"

	"github.com/switchboard-dev/switchboard/pkg/chat"
)

// AgentUnknown is the sentinel identifier a classifier returns when it
// cannot confidently select an agent. The orchestrator, not the classifier,
// decides what happens next.
const AgentUnknown = "unknown"

// Candidate is the classifier's view of a registered agent.
type Candidate struct {
	ID          string
	Description string
}

// Result is one classification decision. Produced fresh per turn and never
// mutated afterwards.
type Result struct {
	// SelectedAgentID is a registered agent identifier or AgentUnknown.
	SelectedAgentID string

	// Confidence in [0, 1].
	Confidence float64

	// UserInput echoes the classified turn text.
	UserInput string
}

// IsUnknown reports whether the classifier declined to select an agent.
func (r *Result) IsUnknown() bool {
	return r.SelectedAgentID == AgentUnknown || r.SelectedAgentID == ""
}

// Classifier selects an agent for a turn. Implementations must not mutate
// history.
type Classifier interface {
	Classify(ctx context.Context, userInput string, history []chat.Message, agents []Candidate) (*Result, error)
}

// SchemaError reports model output that does not match the required
// classification schema.
type SchemaError struct {
	Raw string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("classification output does not match schema: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
