package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/errs"
)

var (
	ErrNegativeTTL   = errors.New("query cache ttl must not be negative")
	ErrFetchRequired = errors.New("query cache fetch function is required")
)

// flightKey is the only singleflight key; each Cache owns its own group.
const flightKey = "all"

// FetchFunc loads the full ordered record set from the system of record.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Predicate selects snapshot elements.
type Predicate[T any] func(T) bool

// LookupFunc loads the canonical value of a single record that currently
// sits in the snapshot as current.
type LookupFunc[T any] func(ctx context.Context, current T) (T, error)

// Observer receives cache events, e.g. for metrics.
type Observer interface {
	Hit()
	Miss()
	Fetched(elapsed time.Duration, err error)
}

type Stats struct {
	Hits        uint64
	Misses      uint64
	Fetches     uint64
	FetchErrors uint64
}

type Option func(*options)

type options struct {
	name     string
	now      func() time.Time
	observer Observer
}

// WithName labels the cache in logs and errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// Cache is a read-through cache over one "fetch all" query.
//
// The snapshot slice is never modified in place: every mutation installs a
// new slice, so a slice returned by Get stays valid and unchanged. Callers
// must not modify it either.
type Cache[T any] struct {
	name     string
	ttl      time.Duration
	fetchAll FetchFunc[T]
	now      func() time.Time
	observer Observer

	group singleflight.Group

	mu        sync.Mutex
	snapshot  []T
	present   bool
	fetchedAt time.Time
	stats     Stats
}

func New[T any](ttl time.Duration, fetchAll FetchFunc[T], opts ...Option) (*Cache[T], error) {
	if ttl < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeTTL, ttl)
	}
	if fetchAll == nil {
		return nil, ErrFetchRequired
	}

	o := options{name: "query", now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[T]{
		name:     o.name,
		ttl:      ttl,
		fetchAll: fetchAll,
		now:      o.now,
		observer: o.observer,
	}, nil
}

func (c *Cache[T]) Name() string { return c.name }

func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// Get returns the snapshot, fetching it first when it is absent or older
// than the TTL. Concurrent stale reads share one fetch. A caller whose ctx
// ends stops waiting; the fetch itself keeps running for the others.
func (c *Cache[T]) Get(ctx context.Context) ([]T, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	if data, ok := c.fresh(true); ok {
		return data, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.refresh(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, errs.Wrapf(ctx.Err(), "wait for %s cache fetch", c.name)
	}
}

// Peek returns the snapshot without fetching, regardless of age.
func (c *Cache[T]) Peek() ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.present
}

// ForceAdd appends record to the snapshot. Without a snapshot it does
// nothing: the next fetch will include the record anyway. The fetch timer is
// left alone.
func (c *Cache[T]) ForceAdd(record T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present {
		return
	}
	next := make([]T, len(c.snapshot), len(c.snapshot)+1)
	copy(next, c.snapshot)
	c.snapshot = append(next, record)
}

// ForceRemove drops every element matching match, keeping the order of the
// rest.
func (c *Cache[T]) ForceRemove(match Predicate[T]) {
	if match == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present || !slices.ContainsFunc(c.snapshot, match) {
		return
	}
	next := make([]T, 0, len(c.snapshot))
	for _, item := range c.snapshot {
		if !match(item) {
			next = append(next, item)
		}
	}
	c.snapshot = next
}

// RefetchOne replaces every element matching match with the value returned
// by lookup, in place. With no snapshot or no match it does nothing. If any
// lookup fails nothing is replaced and the error is returned.
//
// Lookups run without holding the lock, so readers may still see the old
// element until all lookups finish.
func (c *Cache[T]) RefetchOne(ctx context.Context, match Predicate[T], lookup LookupFunc[T]) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if match == nil || lookup == nil {
		return errors.New("match and lookup are required")
	}

	c.mu.Lock()
	var current []T
	if c.present {
		for _, item := range c.snapshot {
			if match(item) {
				current = append(current, item)
			}
		}
	}
	c.mu.Unlock()

	if len(current) == 0 {
		return nil
	}

	replacements := make([]T, 0, len(current))
	for _, item := range current {
		fresh, err := lookup(ctx, item)
		if err != nil {
			return errs.Wrapf(err, "refetch %s record", c.name)
		}
		replacements = append(replacements, fresh)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.present {
		return nil
	}
	// The snapshot may have moved on while the lookups ran; match again and
	// substitute in match order.
	next := slices.Clone(c.snapshot)
	replaced := 0
	for i, item := range next {
		if replaced == len(replacements) {
			break
		}
		if match(item) {
			next[i] = replacements[replaced]
			replaced++
		}
	}
	if replaced > 0 {
		c.snapshot = next
	}
	return nil
}

// Invalidate drops the snapshot; the next Get fetches.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = nil
	c.present = false
	c.fetchedAt = time.Time{}
}

func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// fresh returns the snapshot when it is present and younger than the TTL.
// count records the outcome as a hit or miss.
func (c *Cache[T]) fresh(count bool) ([]T, bool) {
	c.mu.Lock()
	ok := c.present && c.now().Sub(c.fetchedAt) < c.ttl
	data := c.snapshot
	if count {
		if ok {
			c.stats.Hits++
		} else {
			c.stats.Misses++
		}
	}
	c.mu.Unlock()

	if count && c.observer != nil {
		if ok {
			c.observer.Hit()
		} else {
			c.observer.Miss()
		}
	}
	return data, ok
}

func (c *Cache[T]) refresh(ctx context.Context) ([]T, error) {
	// A flight that finished just before this one started already did the work.
	if data, ok := c.fresh(false); ok {
		return data, nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "querycache"), slog.String("cache", c.name))

	started := time.Now()
	data, err := c.fetchAll(ctx)
	elapsed := time.Since(started)

	c.mu.Lock()
	c.stats.Fetches++
	if err != nil {
		c.stats.FetchErrors++
	}
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.Fetched(elapsed, err)
	}

	if err != nil {
		logging.Warn(logCtx, "query cache fetch failed", slog.Duration("elapsed", elapsed), slog.Any("err", errs.Loggable(err)))
		return nil, errs.Wrapf(err, "fetch %s", c.name)
	}

	if data == nil {
		data = []T{}
	}
	data = slices.Clip(data)

	c.mu.Lock()
	c.snapshot = data
	c.present = true
	c.fetchedAt = c.now()
	c.mu.Unlock()

	logging.Debug(logCtx, "query cache refreshed", slog.Int("records", len(data)), slog.Duration("elapsed", elapsed))
	return data, nil
}
