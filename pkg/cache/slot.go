package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// Fetcher loads the full, already normalized collection of a slot
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Slot caches one entity collection. An empty slot fetches on the next Get;
// a populated slot is served without network until it is invalidated.
//
// An invalidation that lands while a fetch is in flight is overwritten when
// that fetch completes. Callers that need fresh data after a write invalidate
// and read again once the write has returned.
type Slot[T any] struct {
	name  string
	fetch Fetcher[T]

	mu        sync.Mutex
	value     []T
	populated bool

	group     singleflight.Group
	snapshots *Snapshots
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewSlot creates an empty slot
func NewSlot[T any](name string, fetch Fetcher[T], opts ...Option) *Slot[T] {
	o := buildOptions(name, opts)
	return &Slot[T]{
		name:      name,
		fetch:     fetch,
		snapshots: o.snapshots,
		logger:    o.logger,
		metrics:   o.metrics,
	}
}

// Name returns the cache name used in metrics and snapshot keys
func (s *Slot[T]) Name() string {
	return s.name
}

// Get returns the cached collection, fetching it when the slot is empty.
// Concurrent callers share one in-flight fetch. A failed fetch leaves the
// slot empty so the next Get retries.
func (s *Slot[T]) Get(ctx context.Context) ([]T, error) {
	if values, ok := s.Peek(); ok {
		s.metrics.RecordCacheHit(s.name)
		return values, nil
	}
	if s.fetch == nil {
		return nil, ErrNoFetcher
	}
	s.metrics.RecordCacheMiss(s.name)

	// The shared fetch must not fail because the first caller went away
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(s.name, func() (interface{}, error) {
		return s.load(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Slot[T]) load(ctx context.Context) ([]T, error) {
	if s.snapshots != nil {
		var cached []T
		if s.snapshots.load(ctx, s.name, &cached) {
			s.logger.Debug("served from snapshot")
			return s.store(cached), nil
		}
	}

	values, err := guard(func() ([]T, error) { return s.fetch(ctx) })
	if err != nil {
		s.metrics.RecordCacheFetchError(s.name)
		s.logger.WithError(err).Warn("cache fetch failed")
		return nil, err
	}

	values = s.store(values)
	if s.snapshots != nil {
		s.snapshots.save(ctx, s.name, values)
	}
	return values, nil
}

func (s *Slot[T]) store(values []T) []T {
	if values == nil {
		values = []T{}
	}
	s.mu.Lock()
	s.value = values
	s.populated = true
	s.mu.Unlock()
	return values
}

// Peek returns the cached collection without fetching
func (s *Slot[T]) Peek() ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.populated
}

// Populated reports whether the next Get is served without network
func (s *Slot[T]) Populated() bool {
	_, ok := s.Peek()
	return ok
}

// Set seeds the slot with a collection
func (s *Slot[T]) Set(values []T) {
	s.store(values)
}

// Invalidate empties the slot. It does not fetch.
func (s *Slot[T]) Invalidate() {
	s.InvalidateWithReason(ReasonExplicit)
}

// InvalidateWithReason empties the slot and its snapshot, recording why
func (s *Slot[T]) InvalidateWithReason(reason string) {
	s.mu.Lock()
	s.value = nil
	s.populated = false
	s.mu.Unlock()

	s.metrics.RecordInvalidation(s.name, reason)
	if s.snapshots != nil {
		s.snapshots.delete(context.Background(), s.name)
	}
	s.logger.WithField("reason", reason).Debug("cache invalidated")
}

// guard turns a panicking fetcher into an error. singleflight would
// otherwise re-panic on a goroutine nobody can recover.
func guard[V any](fetch func() (V, error)) (v V, err error) {
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			err = perr
		}
	}()
	return fetch()
}
