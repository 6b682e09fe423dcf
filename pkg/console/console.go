package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/platinummonkey/tenantadmin/pkg/async"
	"github.com/platinummonkey/tenantadmin/pkg/cache"
	"github.com/platinummonkey/tenantadmin/pkg/client"
	"github.com/platinummonkey/tenantadmin/pkg/config"
	"github.com/platinummonkey/tenantadmin/pkg/contextkeys"
	"github.com/platinummonkey/tenantadmin/pkg/gateway"
	"github.com/platinummonkey/tenantadmin/pkg/normalize"
	"github.com/platinummonkey/tenantadmin/pkg/observability"
	"github.com/platinummonkey/tenantadmin/pkg/rbac"
	"github.com/platinummonkey/tenantadmin/pkg/state"
)

// Cache names, also used as snapshot keys and metric labels
const (
	CacheUsers                = "users"
	CacheRoles                = "roles"
	CacheModules              = "modules"
	CacheUserRoles            = "user_roles"
	CacheRoleDetails          = "role_details"
	CacheAvailablePermissions = "available_permissions"
)

// reloadTimeout bounds a scheduled background reload
const reloadTimeout = time.Minute

// Console wires the tenant client, caches, gateway and state store of one tenant
type Console struct {
	cfg     *config.Config
	client  *client.Client
	gateway *gateway.Gateway
	store   *state.Store

	users       *cache.Slot[rbac.User]
	roles       *cache.Slot[rbac.Role]
	modules     *cache.Slot[rbac.Module]
	userRoles   *cache.Keyed[[]rbac.Role]
	roleDetails *cache.Keyed[rbac.Role]
	available   *cache.Keyed[[]rbac.AvailableModule]

	snapshots    *cache.Snapshots
	ownSnapshots bool
	refresher    *cache.Refresher

	registry *prometheus.Registry
	metrics  *observability.Metrics
	logger   *observability.Logger
}

type options struct {
	httpClient *http.Client
	registry   *prometheus.Registry
	snapshots  *cache.Snapshots
}

// Option customizes construction, mostly for tests
type Option func(*options)

// WithHTTPClient sets the base HTTP client of the tenant API client
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithRegistry registers metrics on registry instead of a fresh one
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithSnapshots uses an existing snapshot tier instead of dialing cfg.Redis.
// The caller keeps ownership; Close does not close it.
func WithSnapshots(snapshots *cache.Snapshots) Option {
	return func(o *options) {
		o.snapshots = snapshots
	}
}

// New builds a console from cfg. When the Redis tier is enabled it is dialed
// here and a connection failure is returned.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts ...Option) (*Console, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = observability.Discard()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Console{
		cfg:    cfg,
		store:  state.NewStore(),
		logger: logger.WithField("tenant_id", cfg.API.TenantID),
	}

	if cfg.Observability.MetricsEnabled {
		c.registry = o.registry
		if c.registry == nil {
			c.registry = prometheus.NewRegistry()
		}
		c.metrics = observability.NewMetrics(c.registry)
	}

	apiClient, err := client.New(clientOptions(cfg, o.httpClient, c.logger, c.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant client: %w", err)
	}
	c.client = apiClient

	c.snapshots = o.snapshots
	if c.snapshots == nil && cfg.Redis.Enabled {
		c.snapshots, err = cache.DialSnapshots(ctx, cache.SnapshotConfig{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TenantID: cfg.API.TenantID,
			TTL:      cfg.Redis.TTL,
		}, c.logger, c.metrics)
		if err != nil {
			return nil, err
		}
		c.ownSnapshots = true
	}

	cacheOpts := []cache.Option{cache.WithLogger(c.logger), cache.WithMetrics(c.metrics)}
	slotOpts := cacheOpts
	if c.snapshots != nil {
		slotOpts = append(append([]cache.Option{}, cacheOpts...), cache.WithSnapshots(c.snapshots))
	}

	c.users = cache.NewSlot[rbac.User](CacheUsers, apiClient.ListUsers, slotOpts...)
	c.roles = cache.NewSlot[rbac.Role](CacheRoles, apiClient.ListRoles, slotOpts...)
	c.modules = cache.NewSlot[rbac.Module](CacheModules, apiClient.ListModules, slotOpts...)

	size, ttl := cfg.Cache.KeyedSize, cfg.Cache.KeyedTTL
	c.userRoles = cache.NewKeyed[[]rbac.Role](CacheUserRoles, size, ttl, apiClient.ListUserRoles, cacheOpts...)
	c.roleDetails = cache.NewKeyed[rbac.Role](CacheRoleDetails, size, ttl, apiClient.GetRole, cacheOpts...)
	c.available = cache.NewKeyed[[]rbac.AvailableModule](CacheAvailablePermissions, size, ttl, apiClient.AvailablePermissions, cacheOpts...)

	c.gateway = gateway.New(apiClient, gateway.Caches{
		Roles:                c.roles,
		UserRoles:            c.userRoles,
		RoleDetails:          c.roleDetails,
		AvailablePermissions: c.available,
	}, c.logger, c.metrics)

	if cfg.Cache.RefreshSchedule != "" {
		c.refresher = cache.NewRefresher(c.logger)
		if _, err := c.refresher.Schedule(cfg.Cache.RefreshSchedule, c.users, c.roles, c.modules); err != nil {
			c.closeSnapshots()
			return nil, err
		}
		c.refresher.OnRefresh(c.reloadInBackground)
	}

	return c, nil
}

func clientOptions(cfg *config.Config, hc *http.Client, logger *observability.Logger, metrics *observability.Metrics) client.Options {
	opts := client.Options{
		BaseURL:         cfg.API.BaseURL,
		TenantID:        cfg.API.TenantID,
		Token:           cfg.API.Token,
		Timeout:         cfg.API.Timeout,
		HTTPClient:      hc,
		ActivityRetries: cfg.API.ActivityRetries,
		RetryBaseDelay:  cfg.API.RetryBaseDelay,
		Normalizer:      &normalize.Normalizer{DefaultStatus: rbac.UserStatus(cfg.API.DefaultUserStatus)},
		Logger:          logger,
		Metrics:         metrics,
	}
	if cfg.API.OAuth2ClientID != "" {
		opts.OAuth2 = &clientcredentials.Config{
			ClientID:     cfg.API.OAuth2ClientID,
			ClientSecret: cfg.API.OAuth2ClientSecret,
			TokenURL:     cfg.API.OAuth2TokenURL,
			Scopes:       cfg.API.OAuth2Scopes,
		}
	}
	return opts
}

// Store returns the state store fed by the Load methods
func (c *Console) Store() *state.Store { return c.store }

// Gateway returns the mutation gateway
func (c *Console) Gateway() *gateway.Gateway { return c.gateway }

// Client returns the tenant API client
func (c *Console) Client() *client.Client { return c.client }

// Registry returns the metrics registry, nil when metrics are disabled
func (c *Console) Registry() *prometheus.Registry { return c.registry }

// UsersCache returns the user list cache
func (c *Console) UsersCache() *cache.Slot[rbac.User] { return c.users }

// RolesCache returns the role list cache
func (c *Console) RolesCache() *cache.Slot[rbac.Role] { return c.roles }

// ModulesCache returns the module catalog cache
func (c *Console) ModulesCache() *cache.Slot[rbac.Module] { return c.modules }

// Context attaches the console logger and tenant to ctx
func (c *Console) Context(ctx context.Context) context.Context {
	ctx = observability.WithLogger(ctx, c.logger)
	if contextkeys.GetTenantID(ctx) == "" {
		ctx = contextkeys.WithTenantID(ctx, c.cfg.API.TenantID)
	}
	return ctx
}

// LoadUsers reads the user cache and publishes the result to the store.
// On failure the store keeps its last value.
func (c *Console) LoadUsers(ctx context.Context) error {
	users, err := c.users.Get(ctx)
	if err != nil {
		return err
	}
	c.store.UpdateUsers(users)
	return nil
}

// LoadRoles reads the role cache and publishes the result to the store
func (c *Console) LoadRoles(ctx context.Context) error {
	roles, err := c.roles.Get(ctx)
	if err != nil {
		return err
	}
	c.store.UpdateRoles(roles)
	return nil
}

// LoadModules reads the module cache and publishes the result to the store
func (c *Console) LoadModules(ctx context.Context) error {
	modules, err := c.modules.Get(ctx)
	if err != nil {
		return err
	}
	c.store.UpdateModules(modules)
	return nil
}

// LoadAll loads users, roles and modules concurrently. Each collection that
// loads is published even when another fails.
func (c *Console) LoadAll(ctx context.Context) error {
	timeout := c.cfg.API.Timeout
	if timeout <= 0 {
		timeout = reloadTimeout
	}
	loaders := []func(context.Context) error{c.LoadUsers, c.LoadRoles, c.LoadModules}
	errs := async.Batch(c.Context(ctx), loaders, len(loaders), "load collections", timeout,
		func(ctx context.Context, load func(context.Context) error) error {
			return load(ctx)
		})
	return errors.Join(errs...)
}

// Refresh clears the collection caches and loads them again
func (c *Console) Refresh(ctx context.Context) error {
	for _, inv := range []cache.Invalidator{c.users, c.roles, c.modules} {
		inv.InvalidateWithReason(cache.ReasonExplicit)
	}
	return c.LoadAll(ctx)
}

func (c *Console) reloadInBackground(ctx context.Context) {
	async.SafeGo(c.Context(ctx), reloadTimeout, "scheduled reload", c.LoadAll)
}

// UserRoles returns the roles assigned to a user
func (c *Console) UserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	return c.userRoles.Get(ctx, userID)
}

// RoleDetail returns a single role
func (c *Console) RoleDetail(ctx context.Context, roleID string) (rbac.Role, error) {
	return c.roleDetails.Get(ctx, roleID)
}

// AvailablePermissions returns the catalog with the role's assignments flagged
func (c *Console) AvailablePermissions(ctx context.Context, roleID string) ([]rbac.AvailableModule, error) {
	return c.available.Get(ctx, roleID)
}

// Activity returns a user's activity log. It is never cached.
func (c *Console) Activity(ctx context.Context, userID string) ([]rbac.ActivityEntry, error) {
	return c.client.ListUserActivity(ctx, userID)
}

// AssignRole grants a role to a user
func (c *Console) AssignRole(ctx context.Context, userID, roleID string) error {
	return c.gateway.AssignRole(ctx, userID, roleID)
}

// ReplaceRole swaps one of a user's roles for another
func (c *Console) ReplaceRole(ctx context.Context, userID, oldRoleID, newRoleID string) error {
	return c.gateway.ReplaceRole(ctx, userID, oldRoleID, newRoleID)
}

// RemoveRole revokes a role from a user
func (c *Console) RemoveRole(ctx context.Context, userID, roleID string) error {
	return c.gateway.RemoveRole(ctx, userID, roleID)
}

// CreateRole creates a role and republishes the role list
func (c *Console) CreateRole(ctx context.Context, req rbac.RoleRequest) (rbac.Role, error) {
	role, err := c.gateway.CreateRole(ctx, req)
	if err != nil {
		return rbac.Role{}, err
	}
	c.reloadRoles(ctx)
	return role, nil
}

// UpdateRole updates a role and republishes the role list
func (c *Console) UpdateRole(ctx context.Context, roleID string, req rbac.RoleRequest) (rbac.Role, error) {
	role, err := c.gateway.UpdateRole(ctx, roleID, req)
	if err != nil {
		return rbac.Role{}, err
	}
	c.reloadRoles(ctx)
	return role, nil
}

// UpdateRolePermissions replaces a role's permissions and republishes the role list
func (c *Console) UpdateRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if err := c.gateway.UpdateRolePermissions(ctx, roleID, permissionIDs); err != nil {
		return err
	}
	c.reloadRoles(ctx)
	return nil
}

// DeleteRole deletes a role and republishes the role list
func (c *Console) DeleteRole(ctx context.Context, roleID string) error {
	if err := c.gateway.DeleteRole(ctx, roleID); err != nil {
		return err
	}
	c.reloadRoles(ctx)
	return nil
}

// reloadRoles republishes roles after a write. The write already succeeded,
// so a failed reload only leaves the store on its last value.
func (c *Console) reloadRoles(ctx context.Context) {
	if err := c.LoadRoles(ctx); err != nil {
		observability.FromContext(c.Context(ctx)).WithError(err).Warn("role list reload after write failed")
	}
}

// Health checks the tenant API and, when configured, the snapshot tier.
// A Redis outage only degrades the status since caches fall back to the API.
func (c *Console) Health(ctx context.Context) observability.HealthStatus {
	checker := observability.NewHealthChecker()
	checker.Require("tenant_api", func(ctx context.Context) error {
		_, err := c.client.ListModules(ctx)
		return err
	})
	if c.snapshots != nil {
		checker.Optional("redis", c.snapshots.Ping)
	}
	return checker.Check(ctx)
}

// Start runs the refresh schedule, if one is configured
func (c *Console) Start() {
	if c.refresher != nil {
		c.refresher.Start()
	}
}

// Close stops the refresh schedule, waiting until ctx is done for a running
// refresh, and releases the snapshot tier it dialed
func (c *Console) Close(ctx context.Context) error {
	if c.refresher != nil {
		select {
		case <-c.refresher.Stop().Done():
		case <-ctx.Done():
			c.logger.Warn("timed out waiting for scheduled refresh to stop")
		}
	}
	return c.closeSnapshots()
}

func (c *Console) closeSnapshots() error {
	if c.snapshots == nil || !c.ownSnapshots {
		return nil
	}
	if err := c.snapshots.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot tier: %w", err)
	}
	return nil
}
