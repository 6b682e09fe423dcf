// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, graceful shutdown and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("cache", "roles").Info("served from snapshot")
//
// Context-aware logging:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithError(err).Warn("reload failed")
//
// # Prometheus Metrics
//
// Register metrics on a caller-owned registry. A nil *Metrics records nothing.
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.RecordCacheHit("roles")
//	metrics.RecordMutation("assign_role", err)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker()
//	checker.Require("tenant_api", pingAPI)
//	checker.Optional("redis", snapshots.Ping)
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
// Start tracing and attach span ids to log entries:
//
//	tracing, err := observability.StartTracing(ctx, cfg.Observability.OTel(), logger)
//	defer tracing.Shutdown(ctx)
//	logger.WithTrace(ctx).Info("role created")
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/gateway: Mutation spans
package observability
