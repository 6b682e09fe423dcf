// Package client is a typed HTTP client for the tenant RBAC endpoints of the CRM backend.
//
// # Overview
//
// Every endpoint returns canonical rbac values; response shapes are reconciled by
// pkg/normalize. Requests carry X-Request-ID and X-Tenant-ID headers and are traced
// through an otelhttp transport.
//
//	c, err := client.New(client.Options{
//		BaseURL:  "https://crm.example.com/api",
//		TenantID: "acme",
//		Token:    os.Getenv("TENANTADMIN_TOKEN"),
//	})
//	roles, err := c.ListRoles(ctx)
//
// # Errors
//
// All failures are *client.Error values classified once at the boundary:
//
//	KindNetwork    - transport failure or timeout
//	KindServer     - HTTP 5xx
//	KindValidation - HTTP 4xx, message taken from the backend payload when present
//
//	if client.IsKind(err, client.KindValidation) {
//		fmt.Println(err.(*client.Error).Message)
//	}
//
// # Retries
//
// Only ListUserActivity retries, and only network and server failures. Every other
// call surfaces the first failure.
package client
