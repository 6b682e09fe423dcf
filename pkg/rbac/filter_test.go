package rbac

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() []User {
	return []User{
		{ID: "1", Email: "Alice@Example.com", Status: StatusActive},
		{ID: "2", Email: "bob@example.com", Status: StatusInactive},
		{ID: "3", Email: "carol@corp.io", Status: StatusPending},
		{ID: "4", Email: "dave@EXAMPLE.com", Status: StatusActive},
	}
}

func TestFilterUsers_Search(t *testing.T) {
	users := sampleUsers()

	for _, search := range []string{"", "example", "EXAMPLE", "corp", "@", "zzz", "a"} {
		t.Run(search, func(t *testing.T) {
			got := FilterUsers(users, search, StatusAll)

			for _, u := range got {
				assert.Contains(t, strings.ToLower(u.Email), strings.ToLower(search))
			}

			expected := 0
			for _, u := range users {
				if strings.Contains(strings.ToLower(u.Email), strings.ToLower(search)) {
					expected++
					assert.NotNil(t, FindUser(got, u.ID), "missing matching user %s", u.ID)
				}
			}
			assert.Len(t, got, expected)
		})
	}
}

func TestFilterUsers_Status(t *testing.T) {
	users := sampleUsers()

	for _, status := range []UserStatus{StatusActive, StatusInactive, StatusPending} {
		got := FilterUsers(users, "", status)
		for _, u := range got {
			assert.Equal(t, status, u.Status)
		}
	}

	assert.Len(t, FilterUsers(users, "", StatusAll), len(users))
	assert.Len(t, FilterUsers(users, "", StatusActive), 2)
}

func TestFilterUsers_DoesNotMutateInput(t *testing.T) {
	users := sampleUsers()
	before := append([]User(nil), users...)

	_ = FilterUsers(users, "example", StatusActive)

	assert.Equal(t, before, users)
}

func TestFilterRoles(t *testing.T) {
	roles := []Role{
		{ID: "1", Name: "Admin", Permissions: []string{"a", "b"}},
		{ID: "2", Name: "Viewer"},
	}

	got := FilterRoles(roles, "adm")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	assert.Empty(t, FilterRoles(roles, "zzz"))
	assert.Len(t, FilterRoles(roles, ""), 2)
}

func TestSameRoles_UsesPermissionCount(t *testing.T) {
	two := 2
	three := 3

	a := []Role{{ID: "1", Name: "Admin", Permissions: []string{"a", "b"}}}
	b := []Role{{ID: "1", Name: "Admin", PermissionCount: &two}}
	c := []Role{{ID: "1", Name: "Admin", Permissions: []string{"a", "b"}, PermissionCount: &three}}

	assert.True(t, SameRoles(a, b))
	assert.False(t, SameRoles(a, c))
	assert.False(t, SameRoles(a, nil))
}

func TestSameUsers(t *testing.T) {
	a := sampleUsers()
	b := sampleUsers()
	assert.True(t, SameUsers(a, b))

	b[1].Status = StatusActive
	assert.False(t, SameUsers(a, b))
}

func TestFindRole_Missing(t *testing.T) {
	assert.Nil(t, FindRole([]Role{{ID: "1"}}, "2"))
	assert.Nil(t, FindUser(nil, "1"))
}
