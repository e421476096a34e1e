package dialog

import (
	"fmt"
	"sort"
	"sync"
)

// StateFactory constructs a fresh state instance for one event.
type StateFactory func() State

// Registry maps state names to factories. States are reconstructed per event
// so a factory must return an instance free of conversation-scoped data.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]StateFactory
}

// NewRegistry creates an empty state registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]StateFactory)}
}

// Register associates a state name with its factory. Registering an existing
// name replaces the previous factory.
func (r *Registry) Register(name string, factory StateFactory) {
	if name == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// RegisterState registers a prebuilt stateless value under its own name.
func (r *Registry) RegisterState(s State) {
	if s == nil {
		return
	}
	r.Register(s.Name(), func() State { return s })
}

// New constructs the named state, or an error when the name is unknown.
func (r *Registry) New(name string) (State, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialog: unknown state %q", name)
	}
	return factory(), nil
}

// Has reports whether a state name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered state names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
