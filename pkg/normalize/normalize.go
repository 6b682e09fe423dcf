package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// Normalizer converts raw backend payloads into canonical rbac values
type Normalizer struct {
	// DefaultStatus is used when a user status is missing or malformed
	DefaultStatus rbac.UserStatus
}

// New creates a normalizer that defaults unknown user statuses to active
func New() *Normalizer {
	return &Normalizer{DefaultStatus: rbac.StatusActive}
}

var defaultNormalizer = New()

// Users normalizes a user list payload with the default normalizer
func Users(raw []byte) []rbac.User { return defaultNormalizer.Users(raw) }

// Roles normalizes a role list payload
func Roles(raw []byte) []rbac.Role { return defaultNormalizer.Roles(raw) }

// Modules normalizes a module list payload
func Modules(raw []byte) []rbac.Module { return defaultNormalizer.Modules(raw) }

// Users normalizes a user list payload
func (n *Normalizer) Users(raw []byte) []rbac.User {
	items := Collection(decode(raw), "users")
	users := make([]rbac.User, 0, len(items))
	for _, item := range items {
		users = append(users, n.User(item))
	}
	return users
}

// User normalizes a single decoded user object
func (n *Normalizer) User(item map[string]any) rbac.User {
	created := timestamp(first(item, "created_at", "createdAt"))
	updated := timestamp(first(item, "updated_at", "updatedAt"))

	skip := []string{"id", "email", "status"}
	skip = appendParsed(skip, created, "created_at")
	skip = appendParsed(skip, updated, "updated_at")

	return rbac.User{
		ID:        str(item["id"]),
		Email:     str(item["email"]),
		Status:    n.Status(item["status"]),
		CreatedAt: created,
		UpdatedAt: updated,
		Extra:     extra(item, skip...),
	}
}

// Status resolves a raw status value: strings are used as is, objects
// contribute their code field, anything else yields DefaultStatus
func (n *Normalizer) Status(v any) rbac.UserStatus {
	switch s := v.(type) {
	case string:
		if s != "" {
			return rbac.UserStatus(s)
		}
	case map[string]any:
		if code, ok := s["code"].(string); ok && code != "" {
			return rbac.UserStatus(code)
		}
	}
	if n.DefaultStatus == "" {
		return rbac.StatusActive
	}
	return n.DefaultStatus
}

// Roles normalizes a role list payload
func (n *Normalizer) Roles(raw []byte) []rbac.Role {
	items := Collection(decode(raw), "roles")
	roles := make([]rbac.Role, 0, len(items))
	for _, item := range items {
		roles = append(roles, Role(item))
	}
	return roles
}

// UserRoles normalizes the role list assigned to one user
func (n *Normalizer) UserRoles(raw []byte) []rbac.Role {
	return n.Roles(raw)
}

// SingleRole normalizes a payload describing one role, bare or wrapped under
// data or role
func (n *Normalizer) SingleRole(raw []byte) (rbac.Role, error) {
	obj, ok := decode(raw).(map[string]any)
	if !ok {
		return rbac.Role{}, fmt.Errorf("role payload is not an object")
	}
	for _, key := range []string{"data", "role"} {
		if inner, ok := obj[key].(map[string]any); ok {
			obj = inner
			break
		}
	}
	return Role(obj), nil
}

// Role normalizes a single decoded role object
func Role(item map[string]any) rbac.Role {
	role := rbac.Role{
		ID:          str(item["id"]),
		Name:        str(item["name"]),
		Description: str(item["description"]),
		Permissions: rbac.UniquePermissions(permissionIDs(item["permissions"])),
		Extra:       extra(item, "id", "name", "description", "permissions", "permission_count"),
	}
	if count, ok := integer(first(item, "permission_count", "permissionCount")); ok {
		role.PermissionCount = &count
	}
	return role
}

// Modules normalizes a module list payload
func (n *Normalizer) Modules(raw []byte) []rbac.Module {
	items := Collection(decode(raw), "modules")
	modules := make([]rbac.Module, 0, len(items))
	for _, item := range items {
		modules = append(modules, rbac.Module{
			ID:          str(item["id"]),
			Name:        str(item["name"]),
			Permissions: permissions(item["permissions"]),
			Extra:       extra(item, "id", "name", "permissions"),
		})
	}
	return modules
}

// AvailablePermissions normalizes the modules-with-assignment payload of a role
func (n *Normalizer) AvailablePermissions(raw []byte) []rbac.AvailableModule {
	items := Collection(decode(raw), "modules")
	modules := make([]rbac.AvailableModule, 0, len(items))
	for _, item := range items {
		m := rbac.AvailableModule{ID: str(item["id"]), Name: str(item["name"])}
		for _, p := range objects(item["permissions"]) {
			assigned, _ := first(p, "assigned", "is_assigned", "isAssigned").(bool)
			m.Permissions = append(m.Permissions, rbac.AvailablePermission{
				Permission: permission(p),
				Assigned:   assigned,
			})
		}
		modules = append(modules, m)
	}
	return modules
}

// Activity normalizes a user activity payload
func (n *Normalizer) Activity(raw []byte) []rbac.ActivityEntry {
	items := Collection(decode(raw), "activity")
	entries := make([]rbac.ActivityEntry, 0, len(items))
	for _, item := range items {
		occurred := timestamp(first(item, "occurred_at", "occurredAt", "timestamp"))
		entries = append(entries, rbac.ActivityEntry{
			ID:         str(item["id"]),
			Action:     str(item["action"]),
			Actor:      str(item["actor"]),
			OccurredAt: occurred,
			Extra:      extra(item, appendParsed([]string{"id", "action", "actor"}, occurred, "occurred_at")...),
		})
	}
	return entries
}

// Collection extracts the list of objects from a decoded payload. It accepts a
// bare array or an object exposing the list under data, items or plural.
// A data or items value that is itself an object is searched one level deeper.
// Any other shape yields an empty slice. Non-object elements are skipped.
func Collection(v any, plural string) []map[string]any {
	switch t := v.(type) {
	case []any:
		return objects(t)
	case map[string]any:
		for _, key := range []string{"data", "items", plural} {
			switch inner := t[key].(type) {
			case []any:
				return objects(inner)
			case map[string]any:
				if key != plural {
					if list, ok := inner[plural].([]any); ok {
						return objects(list)
					}
					if list, ok := inner["items"].([]any); ok {
						return objects(list)
					}
				}
			}
		}
	}
	return []map[string]any{}
}

func decode(raw []byte) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func permissionIDs(v any) []string {
	list, _ := v.([]any)
	ids := make([]string, 0, len(list))
	for _, item := range list {
		switch p := item.(type) {
		case map[string]any:
			if id := str(p["id"]); id != "" {
				ids = append(ids, id)
			}
		default:
			if id := str(p); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func permissions(v any) []rbac.Permission {
	items := objects(v)
	out := make([]rbac.Permission, 0, len(items))
	for _, p := range items {
		out = append(out, permission(p))
	}
	return out
}

func permission(p map[string]any) rbac.Permission {
	return rbac.Permission{
		ID:          str(p["id"]),
		Type:        rbac.PermissionType(str(p["type"])),
		DisplayName: str(first(p, "displayName", "display_name", "name")),
	}
}

func first(item map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func extra(item map[string]any, skip ...string) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	for _, k := range skip {
		delete(out, k)
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	}
	return ""
}

func integer(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		return int(t), true
	}
	return 0, false
}

// appendParsed adds key to the fields dropped from Extra only when its value
// parsed; an unparseable timestamp stays as passthrough
func appendParsed(skip []string, t time.Time, key string) []string {
	if t.IsZero() {
		return skip
	}
	return append(skip, key)
}

func timestamp(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
