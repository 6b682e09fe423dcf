package observability

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// CheckFunc checks one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// HealthChecker provides health check functionality
type HealthChecker struct {
	mu     sync.Mutex
	checks map[string]check
}

type check struct {
	fn       CheckFunc
	optional bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]check)}
}

// Require registers a dependency whose failure makes the whole status unhealthy
func (h *HealthChecker) Require(name string, fn CheckFunc) {
	h.add(name, check{fn: fn})
}

// Optional registers a dependency whose failure only degrades the status
func (h *HealthChecker) Optional(name string, fn CheckFunc) {
	h.add(name, check{fn: fn, optional: true})
}

func (h *HealthChecker) add(name string, c check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = c
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Names returns the checked dependency names, sorted
func (s HealthStatus) Names() []string {
	names := make([]string, 0, len(s.Dependencies))
	for name := range s.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs every dependency check concurrently
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      buildVersion(),
		Dependencies: make(map[string]DependencyStatus),
	}

	h.mu.Lock()
	checks := make(map[string]check, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.Unlock()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, c := range checks {
		wg.Add(1)
		go func(name string, c check) {
			defer wg.Done()
			dep := runCheck(ctx, c.fn)

			mu.Lock()
			defer mu.Unlock()
			status.Dependencies[name] = dep
			if dep.Status != StatusUnhealthy {
				return
			}
			if !c.optional {
				status.Status = StatusUnhealthy
			} else if status.Status != StatusUnhealthy {
				status.Status = StatusDegraded
			}
		}(name, c)
	}
	wg.Wait()

	return status
}

func runCheck(ctx context.Context, fn CheckFunc) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: start,
	}

	err := fn(ctx)
	status.Latency = time.Since(start)
	status.LatencyMS = status.Latency.Milliseconds()
	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
	}
	return status
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "(devel)"
	}
	return info.Main.Version
}
