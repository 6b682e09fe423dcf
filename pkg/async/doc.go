// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, context cancellation, and error collection. Failures are logged
// through the observability logger carried by the context.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, 30*time.Second, "scheduled reload", func(ctx context.Context) error {
//		return console.LoadAll(ctx)
//	})
//
// WorkerPool: Managed pool of concurrent workers
//
//	pool := async.NewWorkerPool(ctx, 4, "user role fetch", 10*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.Submit(func(ctx context.Context) error {
//		_, err := userRoles.Get(ctx, userID)
//		return err
//	})
//
// Batch: Concurrent batch processing
//
//	errs := async.Batch(ctx, loaders, 3, "load", 30*time.Second, func(ctx context.Context, load loader) error {
//		return load(ctx)
//	})
//
// # Features
//
// Panic Recovery: Captures panics with stack traces
// Timeout Enforcement: Per-task timeouts
// Context Cancellation: Respects context cancellation
// Error Collection: Non-blocking error channels
// Graceful Shutdown: Worker draining
package async
