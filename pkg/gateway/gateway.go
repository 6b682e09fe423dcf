package gateway

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/tenantadmin/pkg/cache"
	"github.com/platinummonkey/tenantadmin/pkg/observability"
	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// Backend performs the writes. *client.Client satisfies it.
type Backend interface {
	AssignRole(ctx context.Context, userID, roleID string) error
	ReplaceRole(ctx context.Context, userID, oldRoleID, newRoleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	CreateRole(ctx context.Context, req rbac.RoleRequest) (rbac.Role, error)
	UpdateRole(ctx context.Context, roleID string, req rbac.RoleRequest) (rbac.Role, error)
	UpdateRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	DeleteRole(ctx context.Context, roleID string) error
}

// Caches are the caches a write can make stale. Nil entries are skipped.
type Caches struct {
	Roles                *cache.Slot[rbac.Role]
	UserRoles            *cache.Keyed[[]rbac.Role]
	RoleDetails          *cache.Keyed[rbac.Role]
	AvailablePermissions *cache.Keyed[[]rbac.AvailableModule]
}

// Gateway performs writes and invalidates the affected caches when, and only
// when, the write succeeds. It never touches the state store; callers re-read
// through the caches and push fresh collections in.
type Gateway struct {
	backend Backend
	caches  Caches
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// New creates a gateway
func New(backend Backend, caches Caches, logger *observability.Logger, metrics *observability.Metrics) *Gateway {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Gateway{
		backend: backend,
		caches:  caches,
		logger:  logger.WithField("component", "gateway"),
		metrics: metrics,
		tracer:  observability.Tracer(),
	}
}

// AssignRole grants a role to a user and drops the user's cached role list
func (g *Gateway) AssignRole(ctx context.Context, userID, roleID string) error {
	return g.run(ctx, "assign_role", func(ctx context.Context) error {
		return g.backend.AssignRole(ctx, userID, roleID)
	}, func() {
		g.invalidateUser(userID)
	}, attribute.String("user.id", userID), attribute.String("role.id", roleID))
}

// ReplaceRole swaps one role of a user for another
func (g *Gateway) ReplaceRole(ctx context.Context, userID, oldRoleID, newRoleID string) error {
	return g.run(ctx, "replace_role", func(ctx context.Context) error {
		return g.backend.ReplaceRole(ctx, userID, oldRoleID, newRoleID)
	}, func() {
		g.invalidateUser(userID)
	}, attribute.String("user.id", userID), attribute.String("role.id", oldRoleID), attribute.String("role.new_id", newRoleID))
}

// RemoveRole revokes a role from a user
func (g *Gateway) RemoveRole(ctx context.Context, userID, roleID string) error {
	return g.run(ctx, "remove_role", func(ctx context.Context) error {
		return g.backend.RemoveRole(ctx, userID, roleID)
	}, func() {
		g.invalidateUser(userID)
	}, attribute.String("user.id", userID), attribute.String("role.id", roleID))
}

// CreateRole creates a role and drops the cached role list
func (g *Gateway) CreateRole(ctx context.Context, req rbac.RoleRequest) (rbac.Role, error) {
	var created rbac.Role
	err := g.run(ctx, "create_role", func(ctx context.Context) error {
		var err error
		created, err = g.backend.CreateRole(ctx, req)
		return err
	}, func() {
		if g.caches.Roles != nil {
			g.caches.Roles.InvalidateWithReason(cache.ReasonMutation)
		}
	}, attribute.String("role.name", req.Name))
	return created, err
}

// UpdateRole changes the name, description and permissions of a role
func (g *Gateway) UpdateRole(ctx context.Context, roleID string, req rbac.RoleRequest) (rbac.Role, error) {
	var updated rbac.Role
	err := g.run(ctx, "update_role", func(ctx context.Context) error {
		var err error
		updated, err = g.backend.UpdateRole(ctx, roleID, req)
		return err
	}, func() {
		g.invalidateRole(roleID)
	}, attribute.String("role.id", roleID))
	return updated, err
}

// UpdateRolePermissions replaces the permission set of a role
func (g *Gateway) UpdateRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return g.run(ctx, "update_role_permissions", func(ctx context.Context) error {
		return g.backend.UpdateRolePermissions(ctx, roleID, permissionIDs)
	}, func() {
		g.invalidateRole(roleID)
	}, attribute.String("role.id", roleID), attribute.Int("permission.count", len(permissionIDs)))
}

// DeleteRole deletes a role
func (g *Gateway) DeleteRole(ctx context.Context, roleID string) error {
	return g.run(ctx, "delete_role", func(ctx context.Context) error {
		return g.backend.DeleteRole(ctx, roleID)
	}, func() {
		g.invalidateRole(roleID)
	}, attribute.String("role.id", roleID))
}

// run performs one write inside a span and invalidates only on success
func (g *Gateway) run(ctx context.Context, op string, write func(context.Context) error, invalidate func(), attrs ...attribute.KeyValue) error {
	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(attrs...))
	defer span.End()

	logger := g.logger.WithField("operation", op).WithTrace(ctx)

	err := write(ctx)
	g.metrics.RecordMutation(op, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Warn("mutation failed, caches kept")
		return err
	}

	invalidate()
	logger.Info("mutation applied")
	return nil
}

func (g *Gateway) invalidateUser(userID string) {
	if g.caches.UserRoles != nil {
		g.caches.UserRoles.InvalidateKey(userID, cache.ReasonMutation)
	}
}

// A changed or deleted role also makes every cached user role list stale,
// since those lists embed role names and permissions
func (g *Gateway) invalidateRole(roleID string) {
	if g.caches.Roles != nil {
		g.caches.Roles.InvalidateWithReason(cache.ReasonMutation)
	}
	if g.caches.RoleDetails != nil {
		g.caches.RoleDetails.InvalidateKey(roleID, cache.ReasonMutation)
	}
	if g.caches.AvailablePermissions != nil {
		g.caches.AvailablePermissions.InvalidateKey(roleID, cache.ReasonMutation)
	}
	if g.caches.UserRoles != nil {
		g.caches.UserRoles.InvalidateWithReason(cache.ReasonMutation)
	}
}
