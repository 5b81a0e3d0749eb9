package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached search result.
type Key struct {
	Station string
	Date    string
	Kind    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Station, k.Date, k.Kind)
}

type entry[V any] struct {
	records    []V
	insertedAt time.Time
}

// EntryStatus describes one cached result.
type EntryStatus struct {
	Key       Key
	Records   int
	Age       time.Duration
	Remaining time.Duration
	Fresh     bool
}

// Cache holds search results for a fixed freshness window. Stale entries are
// replaced lazily on the next lookup; nothing sweeps them in the background.
type Cache[V any] struct {
	kind    string
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]entry[V]
	gen     uint64
	mu      sync.Mutex
	group   singleflight.Group
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func New[V any](kind string, ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		kind:    kind,
		ttl:     ttl,
		now:     o.now,
		entries: make(map[Key]entry[V]),
	}
}

func (c *Cache[V]) Kind() string {
	return c.kind
}

func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[V]) lookup(key Key) ([]V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.insertedAt) >= c.ttl {
		return nil, false
	}
	return e.records, true
}

func (c *Cache[V]) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// store keeps records only if no Clear happened since the compute started.
func (c *Cache[V]) store(key Key, gen uint64, records []V) bool {
	if records == nil {
		records = []V{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}
	c.entries[key] = entry[V]{records: records, insertedAt: c.now()}
	return true
}

// GetOrCompute returns the fresh entry for key, or runs compute and stores its
// result. Concurrent misses on the same key share one compute call. Empty
// results are stored; errors are not.
//
// The shared compute is detached from ctx so one caller going away cannot
// cut it short for the others. A caller whose ctx ends stops waiting and
// gets ctx.Err().
func (c *Cache[V]) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) ([]V, error)) ([]V, error) {
	if records, ok := c.lookup(key); ok {
		slog.Debug("Cache hit", "kind", c.kind, "key", key)
		metrics.RecordCacheLookup(c.kind, true)
		return records, nil
	}
	metrics.RecordCacheLookup(c.kind, false)

	gen := c.generation()
	computeCtx := context.WithoutCancel(ctx)

	// computations started before a Clear never share with ones after it
	flightKey := fmt.Sprintf("%s|%d", key, gen)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		// another caller may have filled the entry while we waited
		if records, ok := c.lookup(key); ok {
			return records, nil
		}

		records, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		if c.store(key, gen, records) {
			slog.Debug("Cache entry stored", "kind", c.kind, "key", key, "records", len(records))
		} else {
			slog.Debug("Cache cleared during computation, result not stored", "kind", c.kind, "key", key)
		}
		return records, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		slog.Debug("Joined in-flight computation", "kind", c.kind, "key", key)
	}

	records, _ := res.Val.([]V)
	if records == nil {
		records = []V{}
	}
	return records, nil
}

// Clear drops every entry and returns how many there were. Computations
// already running when Clear is called do not store their results.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[Key]entry[V])
	c.gen++
	return n
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Status lists every entry, stale ones included, sorted by key.
func (c *Cache[V]) Status() []EntryStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]EntryStatus, 0, len(c.entries))
	for key, e := range c.entries {
		age := now.Sub(e.insertedAt)
		remaining := c.ttl - age
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, EntryStatus{
			Key:       key,
			Records:   len(e.records),
			Age:       age,
			Remaining: remaining,
			Fresh:     age < c.ttl,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
