package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
)

// Refresher invalidates caches on cron schedules so long-running consoles
// pick up changes made by other administrators
type Refresher struct {
	cron   *cron.Cron
	logger *observability.Logger

	mu      sync.Mutex
	entries map[cron.EntryID][]Invalidator
	hooks   []func(ctx context.Context)
}

// NewRefresher creates a stopped refresher
func NewRefresher(logger *observability.Logger) *Refresher {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Refresher{
		cron:    cron.New(),
		logger:  logger.WithField("component", "refresher"),
		entries: make(map[cron.EntryID][]Invalidator),
	}
}

// Schedule clears targets on every tick of spec, a standard five field cron
// expression or a descriptor such as "@every 5m"
func (r *Refresher) Schedule(spec string, targets ...Invalidator) (cron.EntryID, error) {
	if len(targets) == 0 {
		return 0, fmt.Errorf("schedule %q has no caches", spec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.cron.AddFunc(spec, func() {
		r.run(targets)
	})
	if err != nil {
		return 0, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	r.entries[id] = targets
	return id, nil
}

// OnRefresh registers a hook run after every scheduled invalidation
func (r *Refresher) OnRefresh(hook func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// RefreshNow runs every scheduled job immediately
func (r *Refresher) RefreshNow() {
	r.mu.Lock()
	all := make([][]Invalidator, 0, len(r.entries))
	for _, targets := range r.entries {
		all = append(all, targets)
	}
	r.mu.Unlock()

	for _, targets := range all {
		r.run(targets)
	}
}

func (r *Refresher) run(targets []Invalidator) {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		t.InvalidateWithReason(ReasonScheduled)
		names = append(names, t.Name())
	}
	r.logger.WithField("caches", names).Info("scheduled cache refresh")

	r.mu.Lock()
	hooks := append([]func(context.Context){}, r.hooks...)
	r.mu.Unlock()
	for _, hook := range hooks {
		r.runHook(hook)
	}
}

func (r *Refresher) runHook(hook func(context.Context)) {
	defer observability.RecoverPanic(r.logger, "refresh hook")
	hook(context.Background())
}

// Start runs the scheduler in its own goroutine
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}
