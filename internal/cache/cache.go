// Package cache holds the per-tenant known encoding sets used for matching.
//
// Readers take an immutable Snapshot; Refresh builds new snapshots and swaps
// them in atomically, so matching never observes a half-loaded tenant.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// Loader produces known encoding sets: tenant -> employee -> encoding.
// An empty tenantID loads every tenant.
type Loader interface {
	Load(ctx context.Context, tenantID string) (map[string]map[string]facematch.Encoding, error)
}

// Cache is the encoding cache. The zero value is not usable; call New.
type Cache struct {
	loader    Loader
	hnswMin   int
	logger    *slog.Logger
	now       func() time.Time
	refreshMu sync.Mutex
	snapshots atomic.Pointer[map[string]*Snapshot]
}

// Option configures a Cache.
type Option func(*Cache)

// WithHNSWThreshold enables approximate candidate preselection for tenants
// with at least n encodings. Zero disables it.
func WithHNSWThreshold(n int) Option {
	return func(c *Cache) { c.hnswMin = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates an empty cache.
func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader: loader,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	empty := map[string]*Snapshot{}
	c.snapshots.Store(&empty)
	return c
}

// Get returns the current snapshot of a tenant, an empty one if none is loaded.
func (c *Cache) Get(tenantID string) *Snapshot {
	if s, ok := (*c.snapshots.Load())[tenantID]; ok {
		return s
	}
	return emptySnapshot(tenantID)
}

// Tenants returns the ids of loaded tenants in sorted order.
func (c *Cache) Tenants() []string {
	return slices.Sorted(maps.Keys(*c.snapshots.Load()))
}

// Size returns the total number of cached encodings.
func (c *Cache) Size() int {
	n := 0
	for _, s := range *c.snapshots.Load() {
		n += s.Len()
	}
	return n
}

// Refresh reloads one tenant, or every tenant when tenantID is empty.
// Refreshing one tenant never alters the snapshots of others. On error the
// previous snapshots stay in place.
func (c *Cache) Refresh(ctx context.Context, tenantID string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	loaded, err := c.loader.Load(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load encodings: %w", err)
	}

	now := c.now()
	current := *c.snapshots.Load()
	var next map[string]*Snapshot
	if tenantID == "" {
		next = make(map[string]*Snapshot, len(loaded))
	} else {
		next = maps.Clone(current)
		delete(next, tenantID)
		loaded = map[string]map[string]facematch.Encoding{tenantID: loaded[tenantID]}
	}

	total := 0
	for tid, encs := range loaded {
		if len(encs) == 0 {
			continue
		}
		snap := newSnapshot(tid, encs, now)
		if c.hnswMin > 0 && len(encs) >= c.hnswMin {
			snap.index = buildIndex(encs)
		}
		next[tid] = snap
		total += len(encs)
	}
	c.snapshots.Store(&next)

	scope := tenantID
	if scope == "" {
		scope = "all"
	}
	c.logger.Info("encoding cache refreshed", "tenant", scope, "encodings", total, "tenants", len(next))
	return nil
}
