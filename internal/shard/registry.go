package shard

import (
	"sort"
	"sync"
)

// Registry is the set of Shard Keys instantiated during one run.
//
// It enumerates which shards exist; it never caches their contents.
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]struct{})}
}

// Add records key. It reports whether the key was new.
func (r *Registry) Add(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	return true
}

// Remove forgets key. No-op if key is not registered.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Keys returns a sorted copy of the registered keys.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.keys))
	for key := range r.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
