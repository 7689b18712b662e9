package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Cache keeps the last catalog fetched from a Provider. A failed refresh
// falls back to the previous list when there is one.
type Cache struct {
	provider Provider
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	products  []domain.Product
	byID      map[string]domain.Product
	fetchedAt time.Time
}

// NewCache wraps provider. A ttl of zero keeps the list until a lookup misses.
func NewCache(provider Provider, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		provider: provider,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Products returns the cached catalog, refreshing it when empty or expired.
func (c *Cache) Products(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	fresh := c.byID != nil && (c.ttl == 0 || c.now().Sub(c.fetchedAt) < c.ttl)
	out := c.products
	c.mu.RUnlock()

	if fresh {
		return clone(out), nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.products), nil
}

// Lookup returns the product with id. A miss triggers one refresh before
// reporting ErrNotFound.
func (c *Cache) Lookup(ctx context.Context, id string) (domain.Product, error) {
	if p, ok := c.get(id); ok {
		return p, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return domain.Product{}, err
	}
	if p, ok := c.get(id); ok {
		return p, nil
	}
	return domain.Product{}, apperrors.NotFound("product", id)
}

// Refresh reloads the catalog from the provider. When it fails and a
// previous list exists the error is logged and the old list is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	products, err := c.provider.Products(ctx)
	if err != nil {
		c.mu.RLock()
		stale := c.byID != nil
		c.mu.RUnlock()
		if stale {
			c.logger.WarnContext(ctx, "catalog refresh failed, serving cached list",
				slog.String("error", err.Error()),
			)
			return nil
		}
		return apperrors.Unavailable("The catalog is unavailable. Please try again later.", err)
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "catalog refreshed", slog.Int("products", len(products)))
	return nil
}

func (c *Cache) get(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

func clone(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}
