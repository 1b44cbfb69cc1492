// Package provider implements the capability-keyed provider registry. Each
// capability (address validation, geocoding, district assignment, maps)
// owns one Registry; lookups return fresh provider instances so per-request
// state such as the fetch-maps flag never leaks across requests.
package provider

import (
	"strings"
	"sync"
)

// Factory constructs a fresh provider instance.
type Factory[T any] func() T

// Registry holds named provider factories for a single capability along
// with the default provider, the ordered fallback chain, and the set of
// providers whose results may be written to the geocode cache.
//
// Registries are populated once during bootstrap and read-only thereafter;
// the lock exists for the bootstrap phase and tests.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	defName   string
	fallback  []string
	cacheable map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
		cacheable: make(map[string]bool),
	}
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register adds a named provider factory.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalize(name)] = f
}

// RegisterDefault adds a named provider factory and marks it the default.
func (r *Registry[T]) RegisterDefault(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalize(name)] = f
	r.defName = normalize(name)
}

// SetDefault marks an already registered provider as the default.
func (r *Registry[T]) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[normalize(name)]; ok {
		r.defName = normalize(name)
	}
}

// SetFallbackChain replaces the ordered fallback chain. Unregistered names
// are dropped.
func (r *Registry[T]) SetFallbackChain(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = r.fallback[:0]
	for _, n := range names {
		if _, ok := r.factories[normalize(n)]; ok {
			r.fallback = append(r.fallback, normalize(n))
		}
	}
}

// FallbackChain returns a copy of the ordered fallback chain.
func (r *Registry[T]) FallbackChain() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.fallback))
	copy(out, r.fallback)
	return out
}

// MarkCacheable adds a provider to the cacheable set.
func (r *Registry[T]) MarkCacheable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheable[normalize(name)] = true
}

// IsCacheable reports whether a provider's results may be cached.
func (r *Registry[T]) IsCacheable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cacheable[normalize(name)]
}

// IsRegistered reports whether a provider name is registered. Names are
// case-insensitive.
func (r *Registry[T]) IsRegistered(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalize(name)]
	return ok
}

// DefaultName returns the default provider name, or "".
func (r *Registry[T]) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defName
}

// NewInstance returns a fresh instance of the named provider, or of the
// default when name is empty. The second return is false when nothing
// matches.
func (r *Registry[T]) NewInstance(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	n := normalize(name)
	if n == "" {
		n = r.defName
	}
	f, ok := r.factories[n]
	if !ok {
		return zero, false
	}
	return f(), true
}

// NewDefault returns a fresh instance of the default provider.
func (r *Registry[T]) NewDefault() (T, bool) {
	return r.NewInstance("")
}
