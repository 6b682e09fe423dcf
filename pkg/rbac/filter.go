package rbac

import "strings"

// MatchUser reports whether a user passes the status and email search filters.
// An empty search and StatusAll (or the empty status) match everything.
func MatchUser(u User, search string, status UserStatus) bool {
	if status != StatusAll && status != "" && u.Status != status {
		return false
	}
	return containsFold(u.Email, search)
}

// MatchRole reports whether the role name contains the search text
func MatchRole(r Role, search string) bool {
	return containsFold(r.Name, search)
}

// FilterUsers returns a new slice with the users that match the filters
func FilterUsers(users []User, search string, status UserStatus) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if MatchUser(u, search, status) {
			out = append(out, u)
		}
	}
	return out
}

// FilterRoles returns a new slice with the roles whose name matches search
func FilterRoles(roles []Role, search string) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if MatchRole(r, search) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SameUsers reports whether two user lists are equivalent for display:
// same order of ids with the same email and status
func SameUsers(a, b []User) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Email != b[i].Email || a[i].Status != b[i].Status {
			return false
		}
	}
	return true
}

// SameRoles compares roles by id, name and effective permission count
func SameRoles(a, b []Role) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name ||
			a[i].EffectivePermissionCount() != b[i].EffectivePermissionCount() {
			return false
		}
	}
	return true
}

// SameModules compares modules by id and permission ids
func SameModules(a, b []Module) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].Permissions) != len(b[i].Permissions) {
			return false
		}
		for j := range a[i].Permissions {
			if a[i].Permissions[j].ID != b[i].Permissions[j].ID {
				return false
			}
		}
	}
	return true
}

// FindUser returns a copy of the user with the given id, or nil
func FindUser(users []User, id string) *User {
	if id == "" {
		return nil
	}
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u
		}
	}
	return nil
}

// FindRole returns a copy of the role with the given id, or nil
func FindRole(roles []Role, id string) *Role {
	if id == "" {
		return nil
	}
	for i := range roles {
		if roles[i].ID == id {
			r := roles[i]
			return &r
		}
	}
	return nil
}
