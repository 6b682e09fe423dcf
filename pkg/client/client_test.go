package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/platinummonkey/tenantadmin/pkg/client"
	"github.com/platinummonkey/tenantadmin/pkg/client/clienttest"
	"github.com/platinummonkey/tenantadmin/pkg/contextkeys"
	"github.com/platinummonkey/tenantadmin/pkg/httputil"
	"github.com/platinummonkey/tenantadmin/pkg/observability"
	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

func newClient(t *testing.T, srv *clienttest.Server, mutate ...func(*client.Options)) *client.Client {
	t.Helper()
	opts := client.Options{
		BaseURL:         srv.URL,
		TenantID:        "acme",
		Token:           "secret",
		ActivityRetries: 2,
		RetryBaseDelay:  time.Millisecond,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := client.New(opts)
	require.NoError(t, err)
	return c
}

func seed(srv *clienttest.Server) {
	srv.AddUser("u1", "ada@example.com", "active")
	srv.AddUser("u2", "bob@example.com", map[string]any{"code": "inactive", "label": "Inactive"})
	srv.AddRole("r1", "Admin", "users.read", "users.edit")
	srv.AddRole("r2", "Viewer", "users.read")
	srv.AddModule("users", "Users",
		rbac.Permission{ID: "users.read", Type: rbac.PermissionRead, DisplayName: "View users"},
		rbac.Permission{ID: "users.edit", Type: rbac.PermissionEdit, DisplayName: "Edit users"},
	)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := client.New(client.Options{})
	assert.Error(t, err)
}

func TestListUsers_AllShapes(t *testing.T) {
	for _, shape := range []clienttest.Shape{
		clienttest.ShapeBare, clienttest.ShapeData, clienttest.ShapeItems, clienttest.ShapePlural,
	} {
		t.Run(string(shape), func(t *testing.T) {
			srv := clienttest.New(t)
			seed(srv)
			srv.SetShape(shape)
			c := newClient(t, srv)

			users, err := c.ListUsers(context.Background())
			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.Equal(t, "u1", users[0].ID)
			assert.Equal(t, rbac.StatusActive, users[0].Status)
			assert.Equal(t, rbac.StatusInactive, users[1].Status)
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	srv := clienttest.New(t)
	seed(srv)
	c := newClient(t, srv)

	_, err := c.ListRoles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acme", srv.LastHeader(clienttest.RouteListRoles, "X-Tenant-ID"))
	assert.Equal(t, "Bearer secret", srv.LastHeader(clienttest.RouteListRoles, "Authorization"))
	assert.NotEmpty(t, srv.LastHeader(clienttest.RouteListRoles, "X-Request-ID"))

	ctx := contextkeys.WithRequestID(context.Background(), "req-42")
	ctx = contextkeys.WithTenantID(ctx, "globex")
	_, err = c.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-42", srv.LastHeader(clienttest.RouteListRoles, "X-Request-ID"))
	assert.Equal(t, "globex", srv.LastHeader(clienttest.RouteListRoles, "X-Tenant-ID"))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		kind    client.Kind
		want    string
	}{
		{name: "server", status: http.StatusBadGateway, message: "upstream", kind: client.KindServer},
		{name: "internal", status: http.StatusInternalServerError, kind: client.KindServer},
		{name: "validation with message", status: http.StatusUnprocessableEntity, message: "name taken", kind: client.KindValidation, want: "name taken"},
		{name: "not found", status: http.StatusNotFound, message: "role not found", kind: client.KindValidation, want: "role not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := clienttest.New(t)
			seed(srv)
			srv.Fail(clienttest.RouteListRoles, tt.status, tt.message)
			c := newClient(t, srv)

			_, err := c.ListRoles(context.Background())
			require.Error(t, err)

			var apiErr *client.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			if tt.want != "" {
				assert.Equal(t, tt.want, apiErr.Message)
			}
		})
	}
}

func TestErrorMessage_AllStyles(t *testing.T) {
	for _, style := range []httputil.ErrorStyle{
		httputil.ErrorStyleMessage, httputil.ErrorStyleError, httputil.ErrorStyleNested,
		httputil.ErrorStyleDetail, httputil.ErrorStyleList,
	} {
		t.Run(string(style), func(t *testing.T) {
			srv := clienttest.New(t)
			seed(srv)
			srv.SetErrorStyle(style)
			srv.Fail(clienttest.RouteListRoles, http.StatusConflict, "name taken")
			c := newClient(t, srv)

			_, err := c.ListRoles(context.Background())
			var apiErr *client.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, client.KindValidation, apiErr.Kind)
			assert.Equal(t, "name taken", apiErr.Message)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := client.New(client.Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.ListUsers(context.Background())
	assert.True(t, client.IsKind(err, client.KindNetwork))
	assert.True(t, client.Transient(err))
}

func TestListUserActivity_RetriesTransientFailures(t *testing.T) {
	srv := clienttest.New(t)
	seed(srv)
	srv.AddActivity("u1", map[string]any{"id": "a1", "action": "login", "actor": "ada@example.com", "occurred_at": "2026-01-02T10:00:00Z"})
	srv.Fail(clienttest.RouteListUserActivity, http.StatusServiceUnavailable, "busy")
	srv.Fail(clienttest.RouteListUserActivity, http.StatusBadGateway, "busy")
	c := newClient(t, srv)

	entries, err := c.ListUserActivity(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "login", entries[0].Action)
	assert.Equal(t, 3, srv.Calls(clienttest.RouteListUserActivity))
}

func TestListUserActivity_GivesUpAfterRetries(t *testing.T) {
	srv := clienttest.New(t)
	for i := 0; i < 5; i++ {
		srv.Fail(clienttest.RouteListUserActivity, http.StatusInternalServerError, "down")
	}
	c := newClient(t, srv)

	_, err := c.ListUserActivity(context.Background(), "u1")
	assert.True(t, client.IsKind(err, client.KindServer))
	assert.Equal(t, 3, srv.Calls(clienttest.RouteListUserActivity))
}

func TestListUserActivity_CancelDuringBackoffIsNetworkError(t *testing.T) {
	srv := clienttest.New(t)
	srv.Fail(clienttest.RouteListUserActivity, http.StatusServiceUnavailable, "busy")
	c := newClient(t, srv, func(o *client.Options) {
		o.RetryBaseDelay = 10 * time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	defer cancel()

	_, err := c.ListUserActivity(ctx, "u1")
	require.Error(t, err)
	assert.True(t, client.IsKind(err, client.KindNetwork))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, srv.Calls(clienttest.RouteListUserActivity))
}

func TestListUserActivity_DoesNotRetryValidation(t *testing.T) {
	srv := clienttest.New(t)
	srv.Fail(clienttest.RouteListUserActivity, http.StatusForbidden, "no access")
	c := newClient(t, srv)

	_, err := c.ListUserActivity(context.Background(), "u1")
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Equal(t, 1, srv.Calls(clienttest.RouteListUserActivity))
}

func TestOtherEndpointsDoNotRetry(t *testing.T) {
	srv := clienttest.New(t)
	srv.Fail(clienttest.RouteListUsers, http.StatusServiceUnavailable, "busy")
	c := newClient(t, srv)

	_, err := c.ListUsers(context.Background())
	assert.True(t, client.IsKind(err, client.KindServer))
	assert.Equal(t, 1, srv.Calls(clienttest.RouteListUsers))
}

func TestLocalValidation_SendsNoRequest(t *testing.T) {
	srv := clienttest.New(t)
	c := newClient(t, srv)
	ctx := context.Background()

	err := c.AssignRole(ctx, "", "r1")
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Zero(t, srv.Calls(clienttest.RouteAssignRole))

	_, err = c.CreateRole(ctx, rbac.RoleRequest{Name: "   "})
	assert.True(t, client.IsKind(err, client.KindValidation))
	assert.Zero(t, srv.Calls(clienttest.RouteCreateRole))

	_, err = c.GetRole(ctx, " ")
	assert.True(t, client.IsKind(err, client.KindValidation))
}

func TestUserRoleMutations(t *testing.T) {
	srv := clienttest.New(t)
	seed(srv)
	c := newClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.AssignRole(ctx, "u1", "r1"))
	assert.Equal(t, []string{"r1"}, srv.UserRoleIDs("u1"))

	roles, err := c.ListUserRoles(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Admin", roles[0].Name)

	require.NoError(t, c.ReplaceRole(ctx, "u1", "r1", "r2"))
	assert.Equal(t, []string{"r2"}, srv.UserRoleIDs("u1"))
	assert.Equal(t, "r2", srv.LastBody(clienttest.RouteReplaceRole)["new_role_id"])

	require.NoError(t, c.RemoveRole(ctx, "u1", "r2"))
	assert.Empty(t, srv.UserRoleIDs("u1"))

	err = c.RemoveRole(ctx, "u1", "r2")
	assert.True(t, client.IsKind(err, client.KindValidation))
}

func TestRoleLifecycle(t *testing.T) {
	srv := clienttest.New(t)
	seed(srv)
	c := newClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateRole(ctx, rbac.RoleRequest{
		Name:        "  Auditor ",
		Description: "read only",
		Permissions: []string{"users.read", "users.read"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Auditor", created.Name)
	assert.Equal(t, []string{"users.read"}, created.Permissions)

	_, err = c.CreateRole(ctx, rbac.RoleRequest{Name: "Auditor"})
	assert.True(t, client.IsKind(err, client.KindValidation))

	updated, err := c.UpdateRole(ctx, created.ID, rbac.RoleRequest{Name: "Auditor", Description: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Description)

	require.NoError(t, c.UpdateRolePermissions(ctx, created.ID, []string{"users.read", "users.edit"}))
	assert.Equal(t, 1, srv.Calls(clienttest.RouteUpdateRolePermissions))

	role, err := c.GetRole(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.read", "users.edit"}, role.Permissions)

	available, err := c.AvailablePermissions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.ElementsMatch(t, []string{"users.read", "users.edit"}, rbac.AssignedIDs(available))

	require.NoError(t, c.DeleteRole(ctx, created.ID))
	assert.NotContains(t, srv.RoleIDs(), created.ID)
}

func TestListModules(t *testing.T) {
	srv := clienttest.New(t)
	seed(srv)
	c := newClient(t, srv)

	modules, err := c.ListModules(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, []string{"users.read", "users.edit"}, modules[0].PermissionIDs())
}

func TestMetricsRecorded(t *testing.T) {
	srv := clienttest.New(t)
	seed(srv)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	c := newClient(t, srv, func(o *client.Options) { o.Metrics = metrics })

	_, err := c.ListRoles(context.Background())
	require.NoError(t, err)

	srv.Fail(clienttest.RouteListRoles, http.StatusInternalServerError, "")
	_, err = c.ListRoles(context.Background())
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ClientRequestsTotal.WithLabelValues("list_roles", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ClientErrorsTotal.WithLabelValues("list_roles", "server")))
}

func TestOAuth2ClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(tokenSrv.Close)

	srv := clienttest.New(t)
	seed(srv)
	c := newClient(t, srv, func(o *client.Options) {
		o.Token = ""
		o.OAuth2 = &clientcredentials.Config{
			ClientID:     "tenantadmin",
			ClientSecret: "s3cret",
			TokenURL:     tokenSrv.URL,
		}
	})

	_, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	_, err = c.ListRoles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer issued-token", srv.LastHeader(clienttest.RouteListUsers, "Authorization"))
	assert.Equal(t, int32(1), tokenCalls.Load())
}
