package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

type countingFetcher struct {
	calls atomic.Int32
	fail  atomic.Bool
	gate  chan struct{}
	roles []rbac.Role
}

func (f *countingFetcher) fetch(ctx context.Context) ([]rbac.Role, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.fail.Load() {
		return nil, errors.New("backend unavailable")
	}
	return f.roles, nil
}

func sampleRoles() []rbac.Role {
	return []rbac.Role{
		{ID: "r1", Name: "Admin", Permissions: []string{"users.read", "users.edit"}},
		{ID: "r2", Name: "Viewer", Permissions: []string{"users.read"}},
	}
}

func TestSlot_PopulatedServedWithoutNetwork(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles()}
	slot := NewSlot("roles", f.fetch)
	ctx := context.Background()

	first, err := slot.Get(ctx)
	require.NoError(t, err)
	second, err := slot.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.True(t, slot.Populated())
}

func TestSlot_InvalidateForcesRefetch(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles()}
	slot := NewSlot("roles", f.fetch)
	ctx := context.Background()

	_, err := slot.Get(ctx)
	require.NoError(t, err)

	slot.Invalidate()
	assert.False(t, slot.Populated())
	assert.Equal(t, int32(1), f.calls.Load(), "invalidate must not fetch")

	_, err = slot.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSlot_ConcurrentGetsShareOneFetch(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles(), gate: make(chan struct{})}
	slot := NewSlot("roles", f.fetch)

	var wg sync.WaitGroup
	results := make([][]rbac.Role, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			roles, err := slot.Get(context.Background())
			assert.NoError(t, err)
			results[i] = roles
		}(i)
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	// let the waiters pile up behind the in-flight fetch
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 2)
	}
}

func TestSlot_FailureIsNotCached(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles()}
	f.fail.Store(true)
	slot := NewSlot("roles", f.fetch)
	ctx := context.Background()

	_, err := slot.Get(ctx)
	require.Error(t, err)
	assert.False(t, slot.Populated())

	f.fail.Store(false)
	roles, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSlot_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles(), gate: make(chan struct{})}
	slot := NewSlot("roles", f.fetch)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := slot.Get(ctx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan []rbac.Role, 1)
	go func() {
		roles, err := slot.Get(context.Background())
		assert.NoError(t, err)
		secondDone <- roles
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(f.gate)
	assert.Len(t, <-secondDone, 2)
	assert.True(t, slot.Populated())
}

func TestSlot_InvalidateDuringFetchIsOverwritten(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles(), gate: make(chan struct{})}
	slot := NewSlot("roles", f.fetch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = slot.Get(context.Background())
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	slot.Invalidate()
	close(f.gate)
	<-done

	assert.True(t, slot.Populated())
}

func TestSlot_SetAndPeek(t *testing.T) {
	slot := NewSlot[rbac.Role]("roles", nil)

	_, ok := slot.Peek()
	assert.False(t, ok)
	_, err := slot.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoFetcher)

	slot.Set(sampleRoles())
	roles, err := slot.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestSlot_EmptyFetchIsCached(t *testing.T) {
	var calls atomic.Int32
	slot := NewSlot("users", func(ctx context.Context) ([]rbac.User, error) {
		calls.Add(1)
		return nil, nil
	})

	users, err := slot.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	_, err = slot.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSlot_Metrics(t *testing.T) {
	f := &countingFetcher{roles: sampleRoles()}
	m := observability.NewMetrics(prometheus.NewRegistry())
	slot := NewSlot("roles", f.fetch, WithMetrics(m))
	ctx := context.Background()

	_, _ = slot.Get(ctx)
	_, _ = slot.Get(ctx)
	slot.InvalidateWithReason(ReasonMutation)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("roles")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("roles")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheInvalidationsTotal.WithLabelValues("roles", ReasonMutation)))
}

func TestSlot_PanickingFetcherReturnsError(t *testing.T) {
	slot := NewSlot[rbac.Role]("roles", func(ctx context.Context) ([]rbac.Role, error) {
		panic("decoder bug")
	})

	_, err := slot.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder bug")
	assert.False(t, slot.Populated())
}
