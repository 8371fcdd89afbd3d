// Package registry provides a small generic registry used for agents and
// LLM providers. Unlike a plain map it remembers insertion order, which the
// orchestrator relies on for its first-registered default convention.
package registry

import (
	"fmt"
	"sync"
)

type Registry[T any] interface {
	Register(name string, item T) error
	Get(name string) (T, bool)
	List() []T
	Names() []string
	First() (T, bool)
	Remove(name string) error
	Count() int
	Clear()
}

type OrderedRegistry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewOrderedRegistry[T any]() *OrderedRegistry[T] {
	return &OrderedRegistry[T]{
		items: make(map[string]T),
	}
}

// Register adds an item under the given name. Registering an existing name
// overwrites the previous item but keeps its original position in the order.
func (r *OrderedRegistry[T]) Register(name string, item T) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; !exists {
		r.order = append(r.order, name)
	}
	r.items[name] = item
	return nil
}

func (r *OrderedRegistry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[name]
	return item, exists
}

// List returns items in registration order.
func (r *OrderedRegistry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]T, 0, len(r.order))
	for _, name := range r.order {
		items = append(items, r.items[name])
	}
	return items
}

// Names returns registered names in registration order.
func (r *OrderedRegistry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// First returns the earliest-registered item still present.
func (r *OrderedRegistry[T]) First() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if len(r.order) == 0 {
		return zero, false
	}
	return r.items[r.order[0]], true
}

func (r *OrderedRegistry[T]) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; !exists {
		return fmt.Errorf("item '%s' not found", name)
	}

	delete(r.items, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *OrderedRegistry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

func (r *OrderedRegistry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]T)
	r.order = nil
}
