package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name     string
		required map[string]CheckFunc
		optional map[string]CheckFunc
		want     string
	}{
		{name: "no dependencies", want: StatusHealthy},
		{
			name:     "all healthy",
			required: map[string]CheckFunc{"tenant_api": ok},
			optional: map[string]CheckFunc{"redis": ok},
			want:     StatusHealthy,
		},
		{
			name:     "optional down degrades",
			required: map[string]CheckFunc{"tenant_api": ok},
			optional: map[string]CheckFunc{"redis": failing("connection refused")},
			want:     StatusDegraded,
		},
		{
			name:     "required down is unhealthy",
			required: map[string]CheckFunc{"tenant_api": failing("timeout")},
			optional: map[string]CheckFunc{"redis": ok},
			want:     StatusUnhealthy,
		},
		{
			name:     "unhealthy wins over degraded",
			required: map[string]CheckFunc{"tenant_api": failing("timeout")},
			optional: map[string]CheckFunc{"redis": failing("connection refused")},
			want:     StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			for name, fn := range tt.required {
				h.Require(name, fn)
			}
			for name, fn := range tt.optional {
				h.Optional(name, fn)
			}

			status := h.Check(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Dependencies, len(tt.required)+len(tt.optional))
			assert.NotEmpty(t, status.Version)
		})
	}
}

func TestHealthChecker_DependencyDetails(t *testing.T) {
	h := NewHealthChecker()
	h.Require("tenant_api", func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	h.Optional("redis", failing("connection refused"))

	status := h.Check(context.Background())
	assert.Equal(t, []string{"redis", "tenant_api"}, status.Names())

	api := status.Dependencies["tenant_api"]
	assert.Equal(t, StatusHealthy, api.Status)
	assert.GreaterOrEqual(t, api.Latency, 5*time.Millisecond)
	assert.GreaterOrEqual(t, api.LatencyMS, int64(5))

	redis := status.Dependencies["redis"]
	assert.Equal(t, StatusUnhealthy, redis.Status)
	assert.Equal(t, "connection refused", redis.Message)
}

func TestHealthChecker_HonoursContext(t *testing.T) {
	h := NewHealthChecker()
	h.Require("tenant_api", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status := h.Check(ctx)
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Contains(t, status.Dependencies["tenant_api"].Message, "deadline exceeded")
}

func TestHealthStatus_JSON(t *testing.T) {
	status := HealthStatus{
		Status:    StatusDegraded,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Version:   "v1.2.3",
		Dependencies: map[string]DependencyStatus{
			"redis": {Status: StatusUnhealthy, Message: "connection refused"},
		},
	}

	data, err := json.Marshal(status)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "degraded", decoded["status"])
	assert.Equal(t, "v1.2.3", decoded["version"])
	deps := decoded["dependencies"].(map[string]interface{})
	assert.Equal(t, "connection refused", deps["redis"].(map[string]interface{})["message"])
}
