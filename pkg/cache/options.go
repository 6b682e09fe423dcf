package cache

import (
	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// Invalidation reasons recorded on the invalidations counter
const (
	ReasonExplicit  = "explicit"
	ReasonMutation  = "mutation"
	ReasonScheduled = "scheduled"
)

type options struct {
	logger    *observability.Logger
	metrics   *observability.Metrics
	snapshots *Snapshots
}

// Option configures a Slot or a Keyed cache
type Option func(*options)

// WithLogger sets the logger used for fetch failures and snapshot errors
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records hits, misses and fetch errors under the cache name
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithSnapshots backs a Slot with a shared Redis tier. Keyed caches ignore it.
func WithSnapshots(snapshots *Snapshots) Option {
	return func(o *options) {
		o.snapshots = snapshots
	}
}

func buildOptions(name string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observability.Discard()
	}
	o.logger = o.logger.WithField("cache", name)
	return o
}

// Invalidator is anything the Refresher can clear on a schedule
type Invalidator interface {
	Name() string
	InvalidateWithReason(reason string)
}
