// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the module are defined here so that key usage
// is discoverable:
//
//	ctx = contextkeys.WithTenantID(ctx, "acme")
//	tenant := contextkeys.GetTenantID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey holds the request id string sent as X-Request-ID.
	// client.Client generates one per request unless the caller set it.
	RequestIDKey Key = "request_id"

	// TenantIDKey holds the tenant identifier. console.Console sets it on every
	// operation; the client sends it as X-Tenant-ID, overriding its configured tenant.
	TenantIDKey Key = "tenant_id"

	// LoggerKey holds the *observability.Logger used by background work
	LoggerKey Key = "logger"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithTenantID adds tenant ID to the context
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetTenantID retrieves tenant ID from context
func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok {
		return tenantID
	}
	return ""
}
