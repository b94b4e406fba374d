package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUnavailable is returned when no snapshot has ever been loaded and the
// remote fetch fails. Once a snapshot exists it stays authoritative through
// later fetch failures.
var ErrUnavailable = errors.New("taxonomy: remote unavailable and no snapshot loaded")

// ErrEmptyTaxonomy is returned when the remote reports a tree with no
// categories at all. That is a configuration error, not a matching miss.
var ErrEmptyTaxonomy = errors.New("taxonomy: remote returned an empty category tree")

// Fetcher is the remote taxonomy source. Implemented by the marketplace
// API client; faked in tests.
type Fetcher interface {
	FetchCategoryTree(ctx context.Context) ([]*CategoryNode, error)
	FetchCategoryAttributes(ctx context.Context, categoryID int) ([]AttributeSchema, error)
}

// DefaultAttributeTTL is how long a per-category attribute schema stays
// fresh before the next read triggers a refetch.
const DefaultAttributeTTL = time.Hour

type attrEntry struct {
	schemas   []AttributeSchema
	fetchedAt time.Time
}

// Cache holds the current taxonomy snapshot and the per-category attribute
// schemas. It is the only shared mutable resource in the engine: snapshot
// swaps are atomic under the lock, and all remote fetches are single-flighted
// so concurrent callers for the same key share one network call. Reads of the
// current snapshot never block on an attribute fetch.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu       sync.RWMutex
	snapshot *Snapshot
	attrs    map[int]attrEntry

	group singleflight.Group
}

// NewCache creates a cache around the given fetcher. A non-positive ttl
// falls back to DefaultAttributeTTL.
func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultAttributeTTL
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		attrs:   make(map[int]attrEntry),
	}
}

// Categories returns the current snapshot, loading it on first access.
func (c *Cache) Categories(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	if err := c.Refresh(ctx, false); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, nil
}

// Refresh fetches the full tree and swaps the snapshot. With force=false a
// refresh is skipped when a snapshot already exists. Concurrent refreshes
// collapse into one fetch; a failed fetch leaves the previous snapshot (if
// any) authoritative.
func (c *Cache) Refresh(ctx context.Context, force bool) error {
	if !force {
		c.mu.RLock()
		loaded := c.snapshot != nil
		c.mu.RUnlock()
		if loaded {
			return nil
		}
	}

	_, err, _ := c.group.Do("tree", func() (interface{}, error) {
		roots, err := c.fetcher.FetchCategoryTree(ctx)
		if err != nil {
			c.mu.RLock()
			loaded := c.snapshot != nil
			c.mu.RUnlock()
			if loaded {
				log.Printf("Taxonomy refresh failed, keeping previous snapshot: %v", err)
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(roots) == 0 {
			return nil, ErrEmptyTaxonomy
		}

		snap := NewSnapshot(roots)
		c.mu.Lock()
		c.snapshot = snap
		// Attribute schemas belong to the old tree; drop them with it.
		c.attrs = make(map[int]attrEntry)
		c.mu.Unlock()

		log.Printf("Loaded taxonomy snapshot: %d nodes, %d leaves", snap.Len(), len(snap.Leaves()))
		return nil, nil
	})
	return err
}

// AttributesFor returns the attribute schemas of one category, fetching and
// caching them with the configured TTL. Concurrent callers for the same
// uncached id issue a single network call.
func (c *Cache) AttributesFor(ctx context.Context, categoryID int) ([]AttributeSchema, error) {
	c.mu.RLock()
	entry, ok := c.attrs[categoryID]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.schemas, nil
	}

	key := fmt.Sprintf("attrs:%d", categoryID)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		c.mu.RLock()
		entry, ok := c.attrs[categoryID]
		c.mu.RUnlock()
		if ok && time.Since(entry.fetchedAt) < c.ttl {
			return entry.schemas, nil
		}

		schemas, err := c.fetcher.FetchCategoryAttributes(ctx, categoryID)
		if err != nil {
			if ok {
				// Stale beats nothing: serve the expired entry and retry
				// on the next read.
				log.Printf("Attribute fetch for category %d failed, serving stale schemas: %v", categoryID, err)
				return entry.schemas, nil
			}
			return nil, fmt.Errorf("fetch attributes for category %d: %w", categoryID, err)
		}

		usable := schemas[:0]
		for _, s := range schemas {
			if !s.Usable() {
				log.Printf("Skipping unusable attribute %q (id %d) of category %d: no values and custom disallowed",
					s.Name, s.AttributeID, categoryID)
				continue
			}
			usable = append(usable, s)
		}

		c.mu.Lock()
		c.attrs[categoryID] = attrEntry{schemas: usable, fetchedAt: time.Now()}
		c.mu.Unlock()
		return usable, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]AttributeSchema), nil
}

// Snapshot returns the current snapshot without triggering a load.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}
