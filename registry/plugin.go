// Package registry holds the two process-wide tables sauna populates at
// startup: plugins (probe modules, keyed by name, each exposing one or more
// typed check functions) and consumers (delivery backends, keyed by name,
// each declaring a delivery mode). Both follow the same
// register/create/list shape the teacher repo uses for its auth and secret
// provider registries.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NicolasLM/sauna/status"
)

// CheckFunc is a plugin's check implementation. params carries the
// per-check config fields other than the generic type/name/periodicity;
// warn and crit stay in params for the check to parse. It returns the check's status and a
// human-readable output line.
type CheckFunc func(params map[string]any) (status.Status, string, error)

// Plugin is what a registered plugin module exposes: a name and a set of
// check functions keyed by the short type string used in configuration
// (load1, used_percent, qlen, ...).
type Plugin struct {
	Name   string
	Checks map[string]CheckFunc
}

// PluginFactory builds a Plugin from its plugin-block configuration. It may
// return a *DependencyError if the plugin's runtime library isn't present
// in this build.
type PluginFactory func(cfg map[string]any) (*Plugin, error)

// PluginRegistry is the process-wide table of known plugin factories.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[string]PluginFactory
}

// NewPluginRegistry creates an empty plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: make(map[string]PluginFactory)}
}

// Register adds a plugin factory. Fails if name is already present.
func (r *PluginRegistry) Register(name string, factory PluginFactory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("registry: invalid plugin registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("registry: plugin %q already registered", name)
	}
	r.plugins[name] = factory
	return nil
}

// Create instantiates a plugin by name.
func (r *PluginRegistry) Create(name string, cfg map[string]any) (*Plugin, error) {
	r.mu.RLock()
	factory, ok := r.plugins[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown plugin %q", name)
	}
	return factory(cfg)
}

// Get reports whether a plugin factory is registered, without creating it.
func (r *PluginRegistry) Get(name string) (PluginFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.plugins[name]
	return f, ok
}

// List returns registered plugin names in stable alphabetical order.
func (r *PluginRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DependencyError indicates an optional plugin's runtime library is not
// built into this binary. The engine collects these across every plugin
// block during configuration resolution and reports them together, rather
// than failing on the first one.
type DependencyError struct {
	Plugin  string
	Library string
	Reason  string
}

func (e *DependencyError) Error() string {
	if e.Library != "" {
		return fmt.Sprintf("plugin %q requires %q which is not built in: %s", e.Plugin, e.Library, e.Reason)
	}
	return fmt.Sprintf("plugin %q is unavailable: %s", e.Plugin, e.Reason)
}
