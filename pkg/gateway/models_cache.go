package gateway

import (
	"context"
	"sync"

	"github.com/dukex/ragline/pkg/models"
	"golang.org/x/sync/singleflight"
)

// ModelLister is the upstream a ModelsCache fills itself from.
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.LLMModel, error)
}

// ModelsCache memoizes the available-models list. Concurrent callers share a
// single in-flight fetch; once populated, all callers get the same resolved
// value until Invalidate. The cache is created by whoever composes the engine
// and handed down explicitly, so its lifecycle is visible.
type ModelsCache struct {
	upstream ModelLister

	group singleflight.Group

	mu     sync.RWMutex
	cached []models.LLMModel
	filled bool
}

// NewModelsCache creates an empty cache over the given upstream.
func NewModelsCache(upstream ModelLister) *ModelsCache {
	return &ModelsCache{upstream: upstream}
}

// Get returns the cached model list, fetching it at most once concurrently.
func (c *ModelsCache) Get(ctx context.Context) ([]models.LLMModel, error) {
	c.mu.RLock()
	if c.filled {
		cached := c.cached
		c.mu.RUnlock()

		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do("models", func() (any, error) {
		list, err := c.upstream.ListModels(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cached = list
		c.filled = true
		c.mu.Unlock()

		return list, nil
	})
	if err != nil {
		return nil, err
	}

	list, _ := result.([]models.LLMModel)

	return list, nil
}

// Invalidate drops the cached list; the next Get fetches again.
func (c *ModelsCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.filled = false
	c.mu.Unlock()
}
