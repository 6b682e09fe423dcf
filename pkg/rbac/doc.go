// Package rbac defines the tenant RBAC domain model shared by the client, cache and
// state layers.
//
// # Overview
//
// A tenant administers three kinds of entities:
//
//	User   - identity record with an email and a lifecycle status
//	Role   - named set of permission ids assigned to users
//	Module - permission namespace declaring the permission catalog
//
// Every entity keeps unknown backend fields in Extra so that re-serializing a value
// does not lose data the backend sent.
//
// # Permission Catalog
//
// The union of all module permissions is the complete catalog. A permission id must
// be declared by exactly one module:
//
//	if err := rbac.ValidateCatalog(modules); err != nil {
//		// errors.Is(err, rbac.ErrInvalidCatalog)
//	}
//
// # Filtering
//
// Filtering is a pure function of the inputs and never mutates them:
//
//	active := rbac.FilterUsers(users, "@example.com", rbac.StatusActive)
//	admins := rbac.FilterRoles(roles, "adm")
//
// Search is a case-insensitive substring match on the user email or role name.
// StatusAll matches every user regardless of status.
//
// # Equality
//
// SameUsers, SameRoles and SameModules decide whether a re-fetched collection differs
// meaningfully from the previous one. Roles compare by EffectivePermissionCount, which
// prefers the server-computed permission_count over the list length.
//
// # Related Packages
//
//   - pkg/normalize: builds these types from raw backend payloads
//   - pkg/state: derived filtered views
package rbac
