package llms

import (
	"fmt"

	"github.com/switchboard-dev/switchboard/pkg/config"
	"github.com/switchboard-dev/switchboard/pkg/registry"
)

// Registry holds named providers built from configuration.
type Registry struct {
	*registry.OrderedRegistry[Provider]
}

func NewRegistry() *Registry {
	return &Registry{
		OrderedRegistry: registry.NewOrderedRegistry[Provider](),
	}
}

// CreateFromConfig builds a provider from its configuration and registers it
// under the given name.
func (r *Registry) CreateFromConfig(name string, cfg *config.LLMProviderConfig) (Provider, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider %q: %w", name, err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// NewProvider builds a provider from its configuration.
func NewProvider(cfg *config.LLMProviderConfig) (Provider, error) {
	switch cfg.Type {
	case config.ProviderAnthropic:
		return NewAnthropicProviderFromConfig(cfg)
	case config.ProviderOpenAI:
		return NewOpenAIProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider type: %s", cfg.Type)
	}
}

// Close closes every registered provider.
func (r *Registry) Close() error {
	var firstErr error
	for _, p := range r.List() {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
