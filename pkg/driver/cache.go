package driver

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/aifeelit/starlark/pkg/runtime"
)

// ModuleCache holds frozen modules for reuse across evaluations. Frozen
// modules are immutable, so a cached module may be handed to any number of
// concurrent evaluations.
type ModuleCache struct {
	cache *ristretto.Cache
}

// NewModuleCache builds a cache that admits roughly maxModules entries.
func NewModuleCache(maxModules int64) (*ModuleCache, error) {
	if maxModules <= 0 {
		return nil, fmt.Errorf("cache: maxModules must be positive, got %d", maxModules)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxModules * 10,
		MaxCost:     maxModules,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &ModuleCache{cache: cache}, nil
}

// Get returns the cached module for key, if present.
func (c *ModuleCache) Get(key string) (*runtime.FrozenModule, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	mod, ok := v.(*runtime.FrozenModule)
	return mod, ok
}

// Put stores a frozen module under key. Admission is best-effort; Wait
// makes the entry visible to subsequent Gets.
func (c *ModuleCache) Put(key string, mod *runtime.FrozenModule) {
	c.cache.Set(key, mod, 1)
	c.cache.Wait()
}

// LoadOrCompute returns the cached module for key, computing and caching
// it on a miss.
func (c *ModuleCache) LoadOrCompute(key string, compute func() (*runtime.FrozenModule, error)) (*runtime.FrozenModule, error) {
	if mod, ok := c.Get(key); ok {
		return mod, nil
	}
	mod, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(key, mod)
	return mod, nil
}

// Close releases the cache's internal resources.
func (c *ModuleCache) Close() {
	c.cache.Close()
}
