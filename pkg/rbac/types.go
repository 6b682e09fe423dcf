package rbac

import (
	"encoding/json"
	"time"
)

// UserStatus represents the lifecycle state of a tenant user
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusPending  UserStatus = "pending"
	StatusUnknown  UserStatus = "unknown"

	// StatusAll is only meaningful as a filter value and matches every user
	StatusAll UserStatus = "all"
)

// Valid reports whether s is a status the backend can assign to a user
func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// PermissionType represents the kind of operation a permission grants
type PermissionType string

const (
	PermissionRead     PermissionType = "read"
	PermissionCreate   PermissionType = "create"
	PermissionEdit     PermissionType = "edit"
	PermissionDelete   PermissionType = "delete"
	PermissionDownload PermissionType = "download"
	PermissionExport   PermissionType = "export"
)

// User represents a tenant user as returned by the backend
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Extra holds every backend field not modelled above
	Extra map[string]any `json:"-"`
}

// MarshalJSON emits the passthrough fields overlaid by the normalized ones
func (u User) MarshalJSON() ([]byte, error) {
	out := cloneExtra(u.Extra)
	out["id"] = u.ID
	out["email"] = u.Email
	out["status"] = u.Status
	if !u.CreatedAt.IsZero() {
		out["created_at"] = u.CreatedAt
	}
	if !u.UpdatedAt.IsZero() {
		out["updated_at"] = u.UpdatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a previously marshalled user back, keeping unknown fields in Extra.
// A created_at or updated_at that is not a timestamp is kept in Extra as well.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p struct {
		plain
		CreatedAt json.RawMessage `json:"created_at"`
		UpdatedAt json.RawMessage `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	known := []string{"id", "email", "status"}
	created, ok := decodeTime(p.CreatedAt)
	if ok {
		known = append(known, "created_at")
	}
	updated, ok := decodeTime(p.UpdatedAt)
	if ok {
		known = append(known, "updated_at")
	}

	extra, err := leftovers(data, known...)
	if err != nil {
		return err
	}
	*u = User(p.plain)
	u.CreatedAt = created
	u.UpdatedAt = updated
	u.Extra = extra
	return nil
}

// Role represents a named bundle of permission identifiers
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`

	// PermissionCount is computed server-side and may differ from
	// len(Permissions) when the backend returns a summary view
	PermissionCount *int `json:"permission_count,omitempty"`

	Extra map[string]any `json:"-"`
}

// EffectivePermissionCount returns the server count when present, otherwise
// the length of the permission list
func (r Role) EffectivePermissionCount() int {
	if r.PermissionCount != nil {
		return *r.PermissionCount
	}
	return len(r.Permissions)
}

// HasPermission reports whether the role grants the permission id
func (r Role) HasPermission(id string) bool {
	for _, p := range r.Permissions {
		if p == id {
			return true
		}
	}
	return false
}

// MarshalJSON emits the passthrough fields overlaid by the normalized ones
func (r Role) MarshalJSON() ([]byte, error) {
	out := cloneExtra(r.Extra)
	out["id"] = r.ID
	out["name"] = r.Name
	if r.Description != "" {
		out["description"] = r.Description
	}
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	out["permissions"] = perms
	if r.PermissionCount != nil {
		out["permission_count"] = *r.PermissionCount
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a previously marshalled role back, keeping unknown fields in Extra
func (r *Role) UnmarshalJSON(data []byte) error {
	type plain Role
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := leftovers(data, "id", "name", "description", "permissions", "permission_count")
	if err != nil {
		return err
	}
	*r = Role(p)
	r.Extra = extra
	return nil
}

// Permission is a single grantable operation inside a module
type Permission struct {
	ID          string         `json:"id"`
	Type        PermissionType `json:"type"`
	DisplayName string         `json:"displayName"`
}

// Module is a permission namespace
type Module struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`

	Extra map[string]any `json:"-"`
}

// PermissionIDs returns the ids of the module permissions in order
func (m Module) PermissionIDs() []string {
	ids := make([]string, 0, len(m.Permissions))
	for _, p := range m.Permissions {
		ids = append(ids, p.ID)
	}
	return ids
}

// MarshalJSON emits the passthrough fields overlaid by the normalized ones
func (m Module) MarshalJSON() ([]byte, error) {
	out := cloneExtra(m.Extra)
	out["id"] = m.ID
	out["name"] = m.Name
	perms := m.Permissions
	if perms == nil {
		perms = []Permission{}
	}
	out["permissions"] = perms
	return json.Marshal(out)
}

// UnmarshalJSON reads a previously marshalled module back, keeping unknown fields in Extra
func (m *Module) UnmarshalJSON(data []byte) error {
	type plain Module
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := leftovers(data, "id", "name", "permissions")
	if err != nil {
		return err
	}
	*m = Module(p)
	m.Extra = extra
	return nil
}

// AvailablePermission is a catalog permission annotated with whether a given
// role currently holds it
type AvailablePermission struct {
	Permission
	Assigned bool `json:"assigned"`
}

// AvailableModule groups the available permissions of one module for a role
type AvailableModule struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Permissions []AvailablePermission `json:"permissions"`
}

// AssignedIDs returns the ids of every permission flagged as assigned
func AssignedIDs(modules []AvailableModule) []string {
	var ids []string
	for _, m := range modules {
		for _, p := range m.Permissions {
			if p.Assigned {
				ids = append(ids, p.ID)
			}
		}
	}
	return ids
}

// ActivityEntry is one audit record of a user's recent actions
type ActivityEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	Extra map[string]any `json:"-"`
}

// RoleRequest is the payload for creating or updating a role
type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

func cloneExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+5)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// decodeTime parses an RFC 3339 value. A missing or null value counts as
// parsed so that it is not carried in Extra.
func decodeTime(raw json.RawMessage) (time.Time, bool) {
	var t time.Time
	if len(raw) == 0 || string(raw) == "null" {
		return t, true
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return time.Time{}, false
	}
	return t, true
}

// leftovers decodes the fields of an object that are not in known
func leftovers(data []byte, known ...string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
