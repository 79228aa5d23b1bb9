package recipe

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]*Recipe{}
)

// Register adds a recipe to the global registry. It is meant to be called
// from package-level variable initializers and panics on invalid or
// duplicate registrations.
func Register(r *Recipe) *Recipe {
	if err := r.Validate(); err != nil {
		panic(err)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[r.Name]; ok {
		panic(fmt.Sprintf("recipe %s registered twice", r.Name))
	}
	registry[r.Name] = r
	return r
}

// Get looks a recipe up by its full name (rmr.gs).
func Get(name string) (*Recipe, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown recipe %q", name)
	}
	return r, nil
}

// All returns every registered recipe, sorted by name.
func All() []*Recipe {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*Recipe, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
