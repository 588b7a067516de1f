package nws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/couchcryptid/storm-site-risk/internal/observability"
	"github.com/jonboulle/clockwork"
)

// AlertCache stores alert lists by point key. Implementations must treat an
// expired entry as a miss.
type AlertCache interface {
	Get(ctx context.Context, key string) ([]domain.RawAlert, bool, error)
	Put(ctx context.Context, key string, alerts []domain.RawAlert, ttl time.Duration) error
}

// CachedSource wraps an AlertSource with a cache. Successful fetches are
// cached for ttl, including empty results; errors are never cached.
type CachedSource struct {
	inner   domain.AlertSource
	cache   AlertCache
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedSource creates a cache decorator around an alert source.
func NewCachedSource(inner domain.AlertSource, cache AlertCache, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// PointKey rounds a point to two decimals (about 1 km) so nearby sites
// share a cache entry.
func PointKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func (c *CachedSource) FetchAlerts(ctx context.Context, lat, lon float64) ([]domain.RawAlert, error) {
	key := PointKey(lat, lon)

	alerts, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to direct fetches.
		c.logger.Warn("alert cache get failed", "key", key, "error", err)
	}
	if ok {
		c.metrics.AlertCache.WithLabelValues("hit").Inc()
		return alerts, nil
	}
	c.metrics.AlertCache.WithLabelValues("miss").Inc()

	alerts, err = c.inner.FetchAlerts(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, alerts, c.ttl); err != nil {
		c.logger.Warn("alert cache put failed", "key", key, "error", err)
	}
	return alerts, nil
}

// MemoryCache is a thread-safe in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	clock      clockwork.Clock
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     []domain.RawAlert
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// NewMemoryCache creates an LRU cache holding at most maxEntries points.
// A nil clock uses real time.
func NewMemoryCache(maxEntries int, clock clockwork.Clock) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		clock:      clock,
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.RawAlert, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.remove(e)
		delete(c.entries, key)
		return nil, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, alerts []domain.RawAlert, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(ttl)
	if e, ok := c.entries[key]; ok {
		e.value = alerts
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: alerts, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return nil
}

// Len returns the number of cached points, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *MemoryCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *MemoryCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *MemoryCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
