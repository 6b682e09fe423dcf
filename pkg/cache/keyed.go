package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// KeyedFetcher loads the value of one key
type KeyedFetcher[V any] func(ctx context.Context, key string) (V, error)

// Keyed caches one value per key, bounded in size and age. It backs per-user
// role lists and per-role detail lookups.
type Keyed[V any] struct {
	name  string
	fetch KeyedFetcher[V]
	cache *lru.LRU[string, V]
	group singleflight.Group

	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewKeyed creates a keyed cache holding at most size entries, each for at most ttl.
// A zero ttl keeps entries until evicted by size.
func NewKeyed[V any](name string, size int, ttl time.Duration, fetch KeyedFetcher[V], opts ...Option) *Keyed[V] {
	if size <= 0 {
		size = 256
	}
	o := buildOptions(name, opts)
	return &Keyed[V]{
		name:    name,
		fetch:   fetch,
		cache:   lru.NewLRU[string, V](size, nil, ttl),
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Name returns the cache name used in metrics
func (k *Keyed[V]) Name() string {
	return k.name
}

// Get returns the cached value of key, fetching it on a miss
func (k *Keyed[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := k.cache.Get(key); ok {
		k.metrics.RecordCacheHit(k.name)
		return v, nil
	}

	var zero V
	if k.fetch == nil {
		return zero, ErrNoFetcher
	}
	k.metrics.RecordCacheMiss(k.name)

	detached := context.WithoutCancel(ctx)
	ch := k.group.DoChan(key, func() (interface{}, error) {
		v, err := guard(func() (V, error) { return k.fetch(detached, key) })
		if err != nil {
			k.metrics.RecordCacheFetchError(k.name)
			k.logger.WithField("key", key).WithError(err).Warn("cache fetch failed")
			return nil, err
		}
		k.cache.Add(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Peek returns the cached value of key without fetching
func (k *Keyed[V]) Peek(key string) (V, bool) {
	return k.cache.Peek(key)
}

// Set seeds the value of key
func (k *Keyed[V]) Set(key string, v V) {
	k.cache.Add(key, v)
}

// Invalidate drops one key
func (k *Keyed[V]) Invalidate(key string) {
	k.InvalidateKey(key, ReasonExplicit)
}

// InvalidateKey drops one key, recording why
func (k *Keyed[V]) InvalidateKey(key, reason string) {
	if k.cache.Remove(key) {
		k.metrics.RecordInvalidation(k.name, reason)
	}
}

// Purge drops every key
func (k *Keyed[V]) Purge() {
	k.InvalidateWithReason(ReasonExplicit)
}

// InvalidateWithReason drops every key, recording why
func (k *Keyed[V]) InvalidateWithReason(reason string) {
	k.cache.Purge()
	k.metrics.RecordInvalidation(k.name, reason)
}

// Len returns the number of live entries
func (k *Keyed[V]) Len() int {
	return k.cache.Len()
}
