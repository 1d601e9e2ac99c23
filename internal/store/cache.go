package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of query results a Cached store keeps.
const DefaultCacheSize = 256

// Cached memoizes read queries of a Store per (query, arguments). Results are
// copied on the way out so callers may modify them.
type Cached struct {
	*Store
	cache *lru.Cache[string, any]
}

// NewCached wraps s with an LRU cache holding up to size results.
func NewCached(s *Store, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	return &Cached{Store: s, cache: c}, nil
}

// Purge drops every cached result.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached results.
func (c *Cached) Len() int {
	return c.cache.Len()
}

func cacheKey(method string, args ...string) string {
	return method + "\x00" + strings.Join(args, "\x00")
}

func cachedSlice[E any](c *Cached, key string, fetch func() ([]E, error)) ([]E, error) {
	if v, ok := c.cache.Get(key); ok {
		return slices.Clone(v.([]E)), nil
	}
	out, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, out)
	return slices.Clone(out), nil
}

// ListClients is Store.ListClients, cached per group.
func (c *Cached) ListClients(ctx context.Context, group string) ([]string, error) {
	return cachedSlice(c, cacheKey("ListClients", group), func() ([]string, error) {
		return c.Store.ListClients(ctx, group)
	})
}

// ListProducts is Store.ListProducts, cached.
func (c *Cached) ListProducts(ctx context.Context) ([]string, error) {
	return cachedSlice(c, cacheKey("ListProducts"), func() ([]string, error) {
		return c.Store.ListProducts(ctx)
	})
}

// ClientProductMonthly is Store.ClientProductMonthly, cached per client.
func (c *Cached) ClientProductMonthly(ctx context.Context, client string) ([]MonthlyRecord, error) {
	return cachedSlice(c, cacheKey("ClientProductMonthly", client), func() ([]MonthlyRecord, error) {
		return c.Store.ClientProductMonthly(ctx, client)
	})
}

// ClientProductTotals is Store.ClientProductTotals, cached per client and month.
func (c *Cached) ClientProductTotals(ctx context.Context, client, month string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("ClientProductTotals", client, month), func() ([]EntityTotal, error) {
		return c.Store.ClientProductTotals(ctx, client, month)
	})
}

// AllClientsProductTotals is Store.AllClientsProductTotals, cached per group and
// month.
func (c *Cached) AllClientsProductTotals(ctx context.Context, group, month string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("AllClientsProductTotals", group, month), func() ([]EntityTotal, error) {
		return c.Store.AllClientsProductTotals(ctx, group, month)
	})
}

// ClientMonthlySales is Store.ClientMonthlySales, cached per client.
func (c *Cached) ClientMonthlySales(ctx context.Context, client string) ([]ClientMonthSales, error) {
	return cachedSlice(c, cacheKey("ClientMonthlySales", client), func() ([]ClientMonthSales, error) {
		return c.Store.ClientMonthlySales(ctx, client)
	})
}

// RouteMonthlySales is Store.RouteMonthlySales, cached per route.
func (c *Cached) RouteMonthlySales(ctx context.Context, route string) ([]MonthTotal, error) {
	return cachedSlice(c, cacheKey("RouteMonthlySales", route), func() ([]MonthTotal, error) {
		return c.Store.RouteMonthlySales(ctx, route)
	})
}

// ClientTotals is Store.ClientTotals, cached per group.
func (c *Cached) ClientTotals(ctx context.Context, group string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("ClientTotals", group), func() ([]EntityTotal, error) {
		return c.Store.ClientTotals(ctx, group)
	})
}

// TotalSales is Store.TotalSales, cached per group.
func (c *Cached) TotalSales(ctx context.Context, group string) (float64, error) {
	key := cacheKey("TotalSales", group)
	if v, ok := c.cache.Get(key); ok {
		return v.(float64), nil
	}
	total, err := c.Store.TotalSales(ctx, group)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, total)
	return total, nil
}

// ClientMonthlyTotals is Store.ClientMonthlyTotals, cached per group.
func (c *Cached) ClientMonthlyTotals(ctx context.Context, group string) ([]EntityMonth, error) {
	return cachedSlice(c, cacheKey("ClientMonthlyTotals", group), func() ([]EntityMonth, error) {
		return c.Store.ClientMonthlyTotals(ctx, group)
	})
}

// ClientsProductMonthly is Store.ClientsProductMonthly, cached per client set.
// The set is keyed in the order given.
func (c *Cached) ClientsProductMonthly(ctx context.Context, clients []string) ([]MonthlyRecord, error) {
	return cachedSlice(c, cacheKey("ClientsProductMonthly", clients...), func() ([]MonthlyRecord, error) {
		return c.Store.ClientsProductMonthly(ctx, clients)
	})
}

// ProductClientTotals is Store.ProductClientTotals, cached per product and month.
func (c *Cached) ProductClientTotals(ctx context.Context, product, month string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("ProductClientTotals", product, month), func() ([]EntityTotal, error) {
		return c.Store.ProductClientTotals(ctx, product, month)
	})
}

// ProductRouteTotals is Store.ProductRouteTotals, cached per product and month.
func (c *Cached) ProductRouteTotals(ctx context.Context, product, month string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("ProductRouteTotals", product, month), func() ([]EntityTotal, error) {
		return c.Store.ProductRouteTotals(ctx, product, month)
	})
}

// ProductMonthlySeries is Store.ProductMonthlySeries, cached per product.
func (c *Cached) ProductMonthlySeries(ctx context.Context, product string) ([]ProductMonth, error) {
	return cachedSlice(c, cacheKey("ProductMonthlySeries", product), func() ([]ProductMonth, error) {
		return c.Store.ProductMonthlySeries(ctx, product)
	})
}

// ManagerTotals is Store.ManagerTotals, cached per month and product.
func (c *Cached) ManagerTotals(ctx context.Context, month, product string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("ManagerTotals", month, product), func() ([]EntityTotal, error) {
		return c.Store.ManagerTotals(ctx, month, product)
	})
}

// ManagerMonthlySales is Store.ManagerMonthlySales, cached per product.
func (c *Cached) ManagerMonthlySales(ctx context.Context, product string) ([]EntityMonth, error) {
	return cachedSlice(c, cacheKey("ManagerMonthlySales", product), func() ([]EntityMonth, error) {
		return c.Store.ManagerMonthlySales(ctx, product)
	})
}

// ManagerClientTotals is Store.ManagerClientTotals, cached per manager, month
// and product.
func (c *Cached) ManagerClientTotals(ctx context.Context, manager, month, product string) ([]EntityTotal, error) {
	return cachedSlice(c, cacheKey("ManagerClientTotals", manager, month, product), func() ([]EntityTotal, error) {
		return c.Store.ManagerClientTotals(ctx, manager, month, product)
	})
}
