package agent

import (
	"fmt"

	"github.com/switchboard-dev/switchboard/pkg/classifier"
	"github.com/switchboard-dev/switchboard/pkg/registry"
)

// Registry holds agents keyed by derived identifier. Registration order
// matters: the first-registered agent is the default when a deployment
// configures no explicit fallback.
type Registry struct {
	*registry.OrderedRegistry[Agent]
}

func NewRegistry() *Registry {
	return &Registry{
		OrderedRegistry: registry.NewOrderedRegistry[Agent](),
	}
}

// Add registers an agent under its identifier. Re-registering an existing
// identifier overwrites the previous agent.
func (r *Registry) Add(a Agent) error {
	if a == nil {
		return fmt.Errorf("agent cannot be nil")
	}
	if a.ID() == "" {
		return fmt.Errorf("agent %q has an empty identifier", a.Name())
	}
	return r.Register(a.ID(), a)
}

// Default returns the first-registered agent.
func (r *Registry) Default() (Agent, bool) {
	return r.First()
}

// Candidates returns the classifier's view of every registered agent, in
// registration order.
func (r *Registry) Candidates() []classifier.Candidate {
	agents := r.List()
	candidates := make([]classifier.Candidate, 0, len(agents))
	for _, a := range agents {
		candidates = append(candidates, classifier.Candidate{
			ID:          a.ID(),
			Description: a.Description(),
		})
	}
	return candidates
}
