// Tool registry with snapshot semantics.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Snapshot copying hidden from consumers

package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/richinex/styx/llm"
)

// Registry manages available tool descriptors with dynamic
// registration. Per-request tables are built from a snapshot, so a
// request's tool table stays immutable even if the registry changes
// concurrently.
type Registry struct {
	mu    sync.RWMutex
	descs map[string]Descriptor
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		descs: make(map[string]Descriptor),
	}
}

// Register adds a descriptor to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(desc Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descs[desc.Name]; exists {
		return fmt.Errorf("tool '%s' already registered", desc.Name)
	}
	r.descs[desc.Name] = desc
	return nil
}

// Get returns a descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.descs[name]
	return desc, exists
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descs))
	for name := range r.descs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all registered descriptors in sorted name
// order. Later registry changes do not affect the returned slice.
func (r *Registry) Snapshot() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descs))
	for name := range r.descs {
		names = append(names, name)
	}
	sort.Strings(names)

	descs := make([]Descriptor, 0, len(names))
	for _, name := range names {
		descs = append(descs, r.descs[name])
	}
	return descs
}

// Tools builds the per-request adapter table for the given session,
// satisfying the bridge's tool source contract.
func (r *Registry) Tools(sessionID string) map[string]llm.ToolAdapter {
	return BuildTable(r.Snapshot(), &Invocation{SessionID: sessionID})
}
