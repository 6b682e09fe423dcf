// Package cli provides the tenantadmin command-line interface for RBAC administration.
//
// # Overview
//
// This package implements the `tenantadmin` CLI on top of a console.Console.
// Every command reads through the caches and writes through the mutation
// gateway, so repeated reads within one invocation hit the network once.
//
// # Commands
//
// users: list users and manage their role assignments
//
//	tenantadmin users list --search ada --status active
//	tenantadmin users roles u1
//	tenantadmin users activity u1
//	tenantadmin users assign u1 r1
//	tenantadmin users replace u1 r1 r2
//	tenantadmin users unassign u1 r2
//
// roles: list and edit roles
//
//	tenantadmin roles list --search admin
//	tenantadmin roles get r1
//	tenantadmin roles create --name Auditor --permission users.read
//	tenantadmin roles update r1 --description "Full access"
//	tenantadmin roles permissions r1 --permission users.read --permission users.edit
//	tenantadmin roles available r1
//	tenantadmin roles delete r1
//
// modules: inspect the permission catalog
//
//	tenantadmin modules list --validate
//
// health: check the tenant API and the Redis snapshot tier
//
//	tenantadmin health --timeout 3s
//
// # Output
//
// Tables by default, or JSON with --output json.
//
// # Configuration
//
// Connection settings come from pkg/config (TENANTADMIN_* variables or the
// YAML file named by TENANTADMIN_CONFIG). --config and --tenant override them.
package cli
