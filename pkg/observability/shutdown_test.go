package observability

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewShutdownManager tests the creation of a new shutdown manager
func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "with custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
		{name: "with zero timeout uses default", timeout: 0, expectedTimeout: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(InfoLevel, &bytes.Buffer{})
			sm := NewShutdownManager(logger, tt.timeout)

			require.NotNil(t, sm)
			assert.Same(t, logger, sm.logger)
			assert.Equal(t, tt.expectedTimeout, sm.shutdownTimeout)
			assert.Empty(t, sm.shutdownFuncs)
		})
	}
}

// TestShutdownManager_Shutdown tests that every function runs once
func TestShutdownManager_Shutdown(t *testing.T) {
	sm := NewShutdownManager(nil, time.Second)

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "functions run under the shutdown deadline")
			calls.Add(1)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown())
	require.NoError(t, sm.Shutdown())
	assert.Equal(t, int32(3), calls.Load())
}

// TestShutdownManager_Errors tests that failures are counted and kept
func TestShutdownManager_Errors(t *testing.T) {
	var buf bytes.Buffer
	sm := NewShutdownManager(NewLogger(InfoLevel, &buf), time.Second)

	sm.RegisterShutdownFunc(func(context.Context) error { return errors.New("redis close failed") })
	sm.RegisterShutdownFunc(func(context.Context) error { return nil })

	err := sm.Shutdown()
	assert.EqualError(t, err, "shutdown completed with 1 errors: redis close failed")
	assert.Contains(t, buf.String(), "redis close failed")
}

// TestShutdownManager_Timeout tests that a stuck function does not block forever
func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(nil, 50*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	sm.RegisterShutdownFunc(func(context.Context) error {
		<-release
		return nil
	})

	start := time.Now()
	err := sm.Shutdown()
	assert.EqualError(t, err, "shutdown timeout reached")
	assert.Less(t, time.Since(start), time.Second)
}
