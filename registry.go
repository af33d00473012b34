package cliorch

import (
	"sort"
	"sync"

	"github.com/cliorch/cliorch/executor"
)

// AdapterFactory builds an Adapter instance given an executor and the
// provider's config slice.
type AdapterFactory func(exec executor.Executor, cfg ProviderConfig) Adapter

// Registry maps provider names to factories, with alias resolution. §9
// prefers a value-typed registry passed through configuration over a
// process-global singleton; DefaultRegistry below exists only as a
// convenience for callers who don't need multiple independent registries.
//
// §9 also flags that the source's "lazy, auto-loading" registry becomes,
// in a systems language, explicit registration during configuration build:
// this Registry never reaches into provider implementation packages itself
// (doing so from the root package would create an import cycle with
// providers/*, which implement Adapter against these very types). Instead
// the providers package's RegisterBuiltins(*Registry) is called explicitly
// wherever a Configuration is assembled — see cmd/cliorch/config.go.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderName]AdapterFactory
	aliases   map[ProviderName]ProviderName
}

// NewRegistry creates an empty registry with no providers registered.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderName]AdapterFactory),
		aliases:   make(map[ProviderName]ProviderName),
	}
}

// Register adds (or replaces) a factory under name, plus any aliases that
// should resolve to it.
func (r *Registry) Register(name ProviderName, factory AdapterFactory, aliases ...ProviderName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	for _, a := range aliases {
		r.aliases[a] = name
	}
}

// resolve follows an alias to its canonical name, or returns name unchanged
// if it isn't an alias.
func (r *Registry) resolve(name ProviderName) ProviderName {
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

// Get returns the factory for name (following aliases). Returns a
// ConfigurationError if name (after alias resolution) is not registered —
// callers must register builtins (providers.RegisterBuiltins) or their own
// factories before Get can find them.
func (r *Registry) Get(name ProviderName) (AdapterFactory, error) {
	r.mu.RLock()
	canonical := r.resolve(name)
	factory, ok := r.factories[canonical]
	r.mu.RUnlock()

	if !ok {
		return nil, NewConfigurationError("unknown provider: " + string(name))
	}
	return factory, nil
}

// Registered reports whether name (after alias resolution) has a factory.
func (r *Registry) Registered(name ProviderName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical := r.resolve(name)
	_, ok := r.factories[canonical]
	return ok
}

// All returns every registered canonical provider name, sorted for
// deterministic output.
func (r *Registry) All() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]ProviderName, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Available returns the subset of All() whose factory-level Available()
// check passes against a fresh instance built with exec.
func (r *Registry) Available(exec executor.Executor) []ProviderName {
	var out []ProviderName
	for _, name := range r.All() {
		factory, err := r.Get(name)
		if err != nil {
			continue
		}
		a := factory(exec, ProviderConfig{Name: name})
		if a.Available() {
			out = append(out, name)
		}
	}
	return out
}

// Reset clears all registrations. Callers that relied on builtins must
// re-run providers.RegisterBuiltins afterward.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[ProviderName]AdapterFactory)
	r.aliases = make(map[ProviderName]ProviderName)
}

// DefaultRegistry is the process-default registry convenience instance
// §9 allows for callers who don't need isolated registries.
var DefaultRegistry = NewRegistry()
