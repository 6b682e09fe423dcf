package state

import (
	"sync"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// Filters is the current search, status and selection state
type Filters struct {
	UserSearch string
	UserStatus rbac.UserStatus
	RoleSearch string

	// Empty means nothing is selected
	SelectedUserID string
	SelectedRoleID string
}

// DefaultFilters matches every user and role and selects nothing
func DefaultFilters() Filters {
	return Filters{UserStatus: rbac.StatusAll}
}

// Store holds the canonical collections, the selections and the filters, and
// keeps the derived views in step with them. All state changes go through its
// setters; every value handed out is a snapshot the caller must not modify.
type Store struct {
	// serializes setters so derived views are recomputed in order
	mu sync.Mutex

	users   *Subject[[]rbac.User]
	roles   *Subject[[]rbac.Role]
	modules *Subject[[]rbac.Module]
	filters *Subject[Filters]

	filteredUsers *Subject[[]rbac.User]
	filteredRoles *Subject[[]rbac.Role]
	selectedUser  *Subject[*rbac.User]
	selectedRole  *Subject[*rbac.Role]
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:   NewSubject([]rbac.User{}, rbac.SameUsers),
		roles:   NewSubject([]rbac.Role{}, rbac.SameRoles),
		modules: NewSubject([]rbac.Module{}, rbac.SameModules),
		filters: NewSubject(DefaultFilters(), func(a, b Filters) bool { return a == b }),

		filteredUsers: NewSubject([]rbac.User{}, rbac.SameUsers),
		filteredRoles: NewSubject([]rbac.Role{}, rbac.SameRoles),
		selectedUser:  NewSubject[*rbac.User](nil, sameUser),
		selectedRole:  NewSubject[*rbac.Role](nil, sameRole),
	}
}

// UpdateUsers replaces the user collection
func (s *Store) UpdateUsers(users []rbac.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users.Set(append([]rbac.User{}, users...))
	s.recomputeUsers()
}

// UpdateRoles replaces the role collection
func (s *Store) UpdateRoles(roles []rbac.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles.Set(append([]rbac.Role{}, roles...))
	s.recomputeRoles()
}

// UpdateModules replaces the permission catalog
func (s *Store) UpdateModules(modules []rbac.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules.Set(append([]rbac.Module{}, modules...))
}

// SelectUser selects a user by id. The id is not validated; an unknown id
// resolves to no selected user.
func (s *Store) SelectUser(id string) {
	s.updateFilters(func(f *Filters) { f.SelectedUserID = id })
}

// SelectRole selects a role by id. An unknown id resolves to no selected role.
func (s *Store) SelectRole(id string) {
	s.updateFilters(func(f *Filters) { f.SelectedRoleID = id })
}

// ClearSelection deselects the user and the role
func (s *Store) ClearSelection() {
	s.updateFilters(func(f *Filters) {
		f.SelectedUserID = ""
		f.SelectedRoleID = ""
	})
}

// SetUserSearchFilter sets the case-insensitive email search text. The text
// is matched as given, surrounding whitespace included.
func (s *Store) SetUserSearchFilter(search string) {
	s.updateFilters(func(f *Filters) { f.UserSearch = search })
}

// SetUserStatusFilter sets the status users must have. rbac.StatusAll or
// the empty status matches every user.
func (s *Store) SetUserStatusFilter(status rbac.UserStatus) {
	if status == "" {
		status = rbac.StatusAll
	}
	s.updateFilters(func(f *Filters) { f.UserStatus = status })
}

// SetRoleSearchFilter sets the case-insensitive role name search text
func (s *Store) SetRoleSearchFilter(search string) {
	s.updateFilters(func(f *Filters) { f.RoleSearch = search })
}

// ResetFilters clears the search texts and the status filter, keeping selections
func (s *Store) ResetFilters() {
	s.updateFilters(func(f *Filters) {
		f.UserSearch = ""
		f.UserStatus = rbac.StatusAll
		f.RoleSearch = ""
	})
}

func (s *Store) updateFilters(apply func(*Filters)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.filters.Value()
	apply(&next)
	if s.filters.Set(next) {
		s.recomputeUsers()
		s.recomputeRoles()
	}
}

// recomputeUsers must be called with s.mu held
func (s *Store) recomputeUsers() {
	users := s.users.Value()
	f := s.filters.Value()

	s.filteredUsers.Set(rbac.FilterUsers(users, f.UserSearch, f.UserStatus))
	s.selectedUser.Set(rbac.FindUser(users, f.SelectedUserID))
}

// recomputeRoles must be called with s.mu held
func (s *Store) recomputeRoles() {
	roles := s.roles.Value()
	f := s.filters.Value()

	s.filteredRoles.Set(rbac.FilterRoles(roles, f.RoleSearch))
	s.selectedRole.Set(rbac.FindRole(roles, f.SelectedRoleID))
}

// Users streams the user collection
func (s *Store) Users() Stream[[]rbac.User] { return s.users }

// Roles streams the role collection
func (s *Store) Roles() Stream[[]rbac.Role] { return s.roles }

// Modules streams the permission catalog
func (s *Store) Modules() Stream[[]rbac.Module] { return s.modules }

// Filters streams the filter and selection state
func (s *Store) Filters() Stream[Filters] { return s.filters }

// FilteredUsers streams the users matching the search text and status filter
func (s *Store) FilteredUsers() Stream[[]rbac.User] { return s.filteredUsers }

// FilteredRoles streams the roles whose name matches the role search text
func (s *Store) FilteredRoles() Stream[[]rbac.Role] { return s.filteredRoles }

// SelectedUser streams the selected user, nil when nothing or an unknown id is selected
func (s *Store) SelectedUser() Stream[*rbac.User] { return s.selectedUser }

// SelectedRole streams the selected role, nil when nothing or an unknown id is selected
func (s *Store) SelectedRole() Stream[*rbac.Role] { return s.selectedRole }

func sameUser(a, b *rbac.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return rbac.SameUsers([]rbac.User{*a}, []rbac.User{*b})
}

func sameRole(a, b *rbac.Role) bool {
	if a == nil || b == nil {
		return a == b
	}
	return rbac.SameRoles([]rbac.Role{*a}, []rbac.Role{*b})
}
