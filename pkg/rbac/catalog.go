package rbac

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCatalog is returned when a permission is declared by more than one module
	ErrInvalidCatalog = errors.New("invalid permission catalog")

	// ErrInvalidRole is returned when a role request fails local validation
	ErrInvalidRole = errors.New("invalid role")
)

// PermissionIndex maps every permission id to the id of the module declaring it
func PermissionIndex(modules []Module) map[string]string {
	idx := make(map[string]string)
	for _, m := range modules {
		for _, p := range m.Permissions {
			if _, ok := idx[p.ID]; !ok {
				idx[p.ID] = m.ID
			}
		}
	}
	return idx
}

// ValidateCatalog checks that every permission id belongs to exactly one module
// and appears once within it
func ValidateCatalog(modules []Module) error {
	owners := make(map[string][]string)
	for _, m := range modules {
		for _, p := range m.Permissions {
			owners[p.ID] = append(owners[p.ID], m.ID)
		}
	}

	var problems []string
	for id, mods := range owners {
		if len(mods) > 1 {
			problems = append(problems, fmt.Sprintf("%s (modules: %s)", id, strings.Join(mods, ", ")))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: duplicated permissions %s", ErrInvalidCatalog, strings.Join(problems, "; "))
}

// UniquePermissions removes duplicate ids keeping first-seen order
func UniquePermissions(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Validate checks the request before it is sent to the backend
func (r RoleRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRole)
	}
	for _, p := range r.Permissions {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty permission id", ErrInvalidRole)
		}
	}
	return nil
}

// Normalized returns a copy of the request with trimmed name and deduplicated permissions
func (r RoleRequest) Normalized() RoleRequest {
	return RoleRequest{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Permissions: UniquePermissions(r.Permissions),
	}
}
