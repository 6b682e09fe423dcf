// Package gateway performs the RBAC write operations.
//
// A successful write invalidates every cache it could have made stale. A
// failed write returns the *client.Error unchanged and leaves all caches
// alone, since the backend state did not change.
//
//	Operation                 Invalidates
//	AssignRole                user role list of the user
//	ReplaceRole               user role list of the user
//	RemoveRole                user role list of the user
//	CreateRole                role list
//	UpdateRole                role list, role detail, available permissions, all user role lists
//	UpdateRolePermissions     role list, role detail, available permissions, all user role lists
//	DeleteRole                role list, role detail, available permissions, all user role lists
//
// The gateway never writes to the state store.
package gateway
