package scenario

import (
	"sort"
	"sync"
)

// Registry manages suite definitions and provides lookup functionality.
type Registry struct {
	suites map[string]*Suite
	mu     sync.RWMutex
}

// NewRegistry creates a new empty suite registry.
func NewRegistry() *Registry {
	return &Registry{
		suites: make(map[string]*Suite),
	}
}

// Register adds a suite to the registry.
// If a suite with the same name exists, it will be replaced.
func (r *Registry) Register(suite *Suite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suites[suite.Name] = suite
}

// Get retrieves a suite by name.
// Returns nil if not found.
func (r *Registry) Get(name string) *Suite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suites[name]
}

// List returns all registered suite names, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.suites))
	for name := range r.suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered suites.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.suites)
}
