package client

import (
	"context"
	"net/http"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// ListModules fetches the permission catalog grouped by module
func (c *Client) ListModules(ctx context.Context) ([]rbac.Module, error) {
	data, err := c.do(ctx, "list_modules", http.MethodGet, "/tenant/modules", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Modules(data), nil
}
