package detect

import (
	"sync"

	apperrors "go-vision-tools/internal/errors"
	"go-vision-tools/internal/model"
)

// Cache holds loaded detectors keyed by kind so repeated invocations skip
// model reloads. It is constructed once by the composition root and shared;
// cached detectors are read-only after construction and safe for concurrent
// Detect calls.
type Cache struct {
	registry *model.Registry

	mu        sync.Mutex
	detectors map[model.Kind]Detector
}

// NewCache creates a detector cache over a model registry
func NewCache(registry *model.Registry) *Cache {
	return &Cache{
		registry:  registry,
		detectors: make(map[model.Kind]Detector),
	}
}

// Get returns the shared detector for a kind, loading it on first use.
// Construction failures are not cached: a model_unavailable result must be
// retriable once the operator has placed the missing artifacts.
func (c *Cache) Get(kind model.Kind) (Detector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.detectors[kind]; ok {
		return d, nil
	}

	desc := c.registry.Resolve(kind)
	d, err := New(kind, desc)
	if err != nil {
		return nil, err
	}
	c.detectors[kind] = d
	return d, nil
}

// Close releases every loaded detector
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for kind, d := range c.detectors {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = apperrors.NewInternalError("failed to close detector", err)
		}
		delete(c.detectors, kind)
	}
	return firstErr
}
