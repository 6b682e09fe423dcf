package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// ListUsers fetches every user of the tenant
func (c *Client) ListUsers(ctx context.Context) ([]rbac.User, error) {
	data, err := c.do(ctx, "list_users", http.MethodGet, "/tenant/users", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Users(data), nil
}

// ListUserRoles fetches the roles assigned to one user
func (c *Client) ListUserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	const op = "list_user_roles"
	if err := requireIDs(op, userID); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, op, http.MethodGet, pathf("/tenant/users/%s/roles", userID), nil)
	if err != nil {
		return nil, err
	}
	return c.normalizer.UserRoles(data), nil
}

// ListUserActivity fetches the recent activity of a user. Transient failures
// are retried up to ActivityRetries times with exponential backoff.
func (c *Client) ListUserActivity(ctx context.Context, userID string) ([]rbac.ActivityEntry, error) {
	const op = "list_user_activity"
	if err := requireIDs(op, userID); err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBaseDelay
	policy.MaxInterval = 10 * c.retryBaseDelay

	var data []byte
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		data, err = c.do(ctx, op, http.MethodGet, pathf("/tenant/users/%s/activity", userID), nil)
		if err != nil && !Transient(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			c.logger.WithField("attempt", attempt).WithError(err).Debug("activity fetch failed")
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.activityRetries)), ctx))
	if err != nil {
		// a context ended during the backoff wait surfaces without an attempt to wrap it
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			err = networkError(op, err)
		}
		return nil, err
	}
	return c.normalizer.Activity(data), nil
}

// AssignRole grants a role to a user
func (c *Client) AssignRole(ctx context.Context, userID, roleID string) error {
	const op = "assign_role"
	if err := requireIDs(op, userID, roleID); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPost, pathf("/tenant/users/%s/roles/%s", userID, roleID), nil)
	return err
}

type replaceRoleBody struct {
	NewRoleID string `json:"new_role_id"`
}

// ReplaceRole swaps one role of a user for another
func (c *Client) ReplaceRole(ctx context.Context, userID, oldRoleID, newRoleID string) error {
	const op = "replace_role"
	if err := requireIDs(op, userID, oldRoleID, newRoleID); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodPut,
		pathf("/tenant/users/%s/roles/%s", userID, oldRoleID),
		replaceRoleBody{NewRoleID: newRoleID})
	return err
}

// RemoveRole revokes a role from a user
func (c *Client) RemoveRole(ctx context.Context, userID, roleID string) error {
	const op = "remove_role"
	if err := requireIDs(op, userID, roleID); err != nil {
		return err
	}
	_, err := c.do(ctx, op, http.MethodDelete, pathf("/tenant/users/%s/roles/%s", userID, roleID), nil)
	return err
}
