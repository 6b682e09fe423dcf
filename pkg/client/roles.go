package client

import (
	"bytes"
	"context"
	"net/http"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// ListRoles fetches every role of the tenant
func (c *Client) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	data, err := c.do(ctx, "list_roles", http.MethodGet, "/tenant/roles", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Roles(data), nil
}

// GetRole fetches a single role with its full permission list
func (c *Client) GetRole(ctx context.Context, roleID string) (rbac.Role, error) {
	const op = "get_role"
	if err := requireIDs(op, roleID); err != nil {
		return rbac.Role{}, err
	}
	data, err := c.do(ctx, op, http.MethodGet, pathf("/tenant/roles/%s", roleID), nil)
	if err != nil {
		return rbac.Role{}, err
	}
	role, err := c.normalizer.SingleRole(data)
	if err != nil {
		return rbac.Role{}, &Error{Kind: KindServer, Op: op, Message: "malformed role payload", Err: err}
	}
	return role, nil
}

// CreateRole creates a role. The returned role is the server echo when the
// response carries one, otherwise the submitted values.
func (c *Client) CreateRole(ctx context.Context, req rbac.RoleRequest) (rbac.Role, error) {
	const op = "create_role"
	if err := req.Validate(); err != nil {
		return rbac.Role{}, validationError(op, err.Error())
	}
	req = req.Normalized()

	data, err := c.do(ctx, op, http.MethodPost, "/tenant/roles", req)
	if err != nil {
		return rbac.Role{}, err
	}
	return c.echoRole(data, "", req), nil
}

// UpdateRole replaces the name, description and permissions of a role
func (c *Client) UpdateRole(ctx context.Context, roleID string, req rbac.RoleRequest) (rbac.Role, error) {
	const op = "update_role"
	if err := requireIDs(op, roleID); err != nil {
		return rbac.Role{}, err
	}
	if err := req.Validate(); err != nil {
		return rbac.Role{}, validationError(op, err.Error())
	}
	req = req.Normalized()

	data, err := c.do(ctx, op, http.MethodPut, pathf("/tenant/roles/%s", roleID), req)
	if err != nil {
		return rbac.Role{}, err
	}
	return c.echoRole(data, roleID, req), nil
}

type permissionsBody struct {
	PermissionIDs []string `json:"permission_ids"`
}

// UpdateRolePermissions replaces the permission set of a role
func (c *Client) UpdateRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	const op = "update_role_permissions"
	if err := requireIDs(op, roleID); err != nil {
		return err
	}
	ids := rbac.UniquePermissions(permissionIDs)
	_, err := c.do(ctx, op, http.MethodPut, pathf("/tenant/roles/%s", roleID), permissionsBody{PermissionIDs: ids})
	return err
}

// DeleteRole deletes a role
func (c *Client) DeleteRole(ctx context.Context, roleID string) error {
	const op = "delete_role"
	if err := requireIDs(op, roleID); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodDelete, pathf("/tenant/roles/%s", roleID), nil)
	return err
}

// AvailablePermissions fetches the permission catalog annotated with the
// assignments of one role
func (c *Client) AvailablePermissions(ctx context.Context, roleID string) ([]rbac.AvailableModule, error) {
	const op = "available_permissions"
	if err := requireIDs(op, roleID); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, op, http.MethodGet, pathf("/tenant/roles/%s/permissions/available", roleID), nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer.AvailablePermissions(data), nil
}

func (c *Client) echoRole(data []byte, roleID string, req rbac.RoleRequest) rbac.Role {
	if len(bytes.TrimSpace(data)) > 0 {
		if role, err := c.normalizer.SingleRole(data); err == nil && role.ID != "" {
			return role
		}
	}
	return rbac.Role{
		ID:          roleID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	}
}
