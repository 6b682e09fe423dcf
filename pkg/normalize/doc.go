// Package normalize converts heterogeneous tenant API payloads into canonical rbac values.
//
// The backend is inconsistent about response shapes. A list endpoint may return a bare
// array, or wrap it as {"data": [...]}, {"items": [...]} or under the entity plural
// ({"users": [...]}, {"roles": [...]}, {"modules": [...]}). A user status arrives as a
// string or as a {"code", "name", "id"} object.
//
// Normalization never fails on list payloads: unrecognized shapes yield an empty slice.
// Fields that are not modelled explicitly are kept in the Extra map of each value.
//
//	n := normalize.New()
//	n.DefaultStatus = rbac.StatusUnknown // opt out of the active fallback
//	users := n.Users(body)
package normalize
