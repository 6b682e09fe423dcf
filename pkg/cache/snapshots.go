package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// Snapshots is a Redis tier shared by every process administering the same
// tenant. Slots consult it on a miss before going to the network. Failures
// are logged and treated as misses.
type Snapshots struct {
	client  *redis.Client
	tenant  string
	ttl     time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics
}

// SnapshotConfig configures the Redis tier
type SnapshotConfig struct {
	URL      string
	Password string
	DB       int
	TenantID string
	TTL      time.Duration
}

// DialSnapshots connects to Redis and verifies the connection
func DialSnapshots(ctx context.Context, cfg SnapshotConfig, logger *observability.Logger, metrics *observability.Metrics) (*Snapshots, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opts.DB = cfg.DB
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewSnapshots(client, cfg.TenantID, cfg.TTL, logger, metrics), nil
}

// NewSnapshots wraps an existing Redis client
func NewSnapshots(client *redis.Client, tenantID string, ttl time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Snapshots {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &Snapshots{
		client:  client,
		tenant:  tenantID,
		ttl:     ttl,
		logger:  logger.WithField("component", "snapshots"),
		metrics: metrics,
	}
}

// Key returns the Redis key holding the snapshot of a cache
func (s *Snapshots) Key(name string) string {
	return fmt.Sprintf("tenantadmin:%s:%s", s.tenant, name)
}

// Ping checks that Redis answers
func (s *Snapshots) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Snapshots) Close() error {
	return s.client.Close()
}

func (s *Snapshots) load(ctx context.Context, name string, dst interface{}) bool {
	key := s.Key(name)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	} else if err != nil {
		s.metrics.RecordSnapshotError("get")
		s.logger.WithField("key", key).WithError(err).Warn("snapshot read failed")
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// Corrupt entries are dropped so the next fill replaces them
		s.metrics.RecordSnapshotError("decode")
		s.logger.WithField("key", key).WithError(err).Warn("dropping corrupt snapshot")
		s.client.Del(ctx, key)
		return false
	}
	return true
}

func (s *Snapshots) save(ctx context.Context, name string, v interface{}) {
	key := s.Key(name)

	data, err := json.Marshal(v)
	if err != nil {
		s.metrics.RecordSnapshotError("encode")
		s.logger.WithField("key", key).WithError(err).Warn("snapshot encode failed")
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.metrics.RecordSnapshotError("set")
		s.logger.WithField("key", key).WithError(err).Warn("snapshot write failed")
	}
}

func (s *Snapshots) delete(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	key := s.Key(name)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.metrics.RecordSnapshotError("del")
		s.logger.WithField("key", key).WithError(err).Warn("snapshot delete failed")
	}
}
