package normalize

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	sort.Strings(out)
	return out
}

func TestCollectionShapes(t *testing.T) {
	list := `[{"id":"1","name":"Admin","permissions":["a","b"]},{"id":"2","name":"Viewer","permissions":[]}]`

	tests := []struct {
		name string
		body string
	}{
		{"bare", list},
		{"data", `{"data":` + list + `}`},
		{"items", `{"items":` + list + `}`},
		{"plural", `{"roles":` + list + `}`},
		{"nested data", `{"data":{"roles":` + list + `,"total":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := Roles([]byte(tt.body))
			require.Len(t, roles, 2)
			assert.Equal(t, []string{"1", "2"}, ids(roles, func(r rbac.Role) string { return r.ID }))
		})
	}
}

func TestCollection_UnknownShapes(t *testing.T) {
	for _, body := range []string{``, `null`, `"text"`, `42`, `{}`, `{"data":"x"}`, `{"other":[{"id":"1"}]}`, `not json`} {
		assert.Empty(t, Users([]byte(body)), body)
		assert.NotNil(t, Users([]byte(body)), body)
	}
}

func TestCollection_SkipsNonObjects(t *testing.T) {
	modules := Modules([]byte(`[{"id":"crm","permissions":[]},"junk",3,null]`))
	require.Len(t, modules, 1)
	assert.Equal(t, "crm", modules[0].ID)
}

func TestUserStatus(t *testing.T) {
	users := Users([]byte(`{"users":[
		{"id":"1","email":"a@x.com","status":"pending"},
		{"id":"2","email":"b@x.com","status":{"code":"pending","name":"Pending","id":3}},
		{"id":"3","email":"c@x.com"},
		{"id":"4","email":"d@x.com","status":{"name":"Broken"}},
		{"id":"5","email":"e@x.com","status":17}
	]}`))
	require.Len(t, users, 5)

	assert.Equal(t, rbac.StatusPending, users[0].Status)
	assert.Equal(t, rbac.StatusPending, users[1].Status)
	assert.Equal(t, rbac.StatusActive, users[2].Status)
	assert.Equal(t, rbac.StatusActive, users[3].Status)
	assert.Equal(t, rbac.StatusActive, users[4].Status)
}

func TestUserStatus_ConfigurableDefault(t *testing.T) {
	n := New()
	n.DefaultStatus = rbac.StatusUnknown

	users := n.Users([]byte(`[{"id":"1","status":null},{"id":"2","status":"inactive"}]`))
	require.Len(t, users, 2)
	assert.Equal(t, rbac.StatusUnknown, users[0].Status)
	assert.Equal(t, rbac.StatusInactive, users[1].Status)
}

func TestUser_Passthrough(t *testing.T) {
	users := Users([]byte(`[{"id":7,"email":"a@x.com","status":{"code":"inactive"},
		"created_at":"2024-03-01T10:00:00Z","department":"sales","tags":["vip"]}]`))
	require.Len(t, users, 1)

	u := users[0]
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, rbac.StatusInactive, u.Status)
	assert.Equal(t, 2024, u.CreatedAt.Year())
	assert.Equal(t, "sales", u.Extra["department"])

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "inactive", out["status"])
	assert.Equal(t, "sales", out["department"])
	assert.Equal(t, []any{"vip"}, out["tags"])
}

func TestRole_PermissionsAndCount(t *testing.T) {
	roles := Roles([]byte(`{"data":[
		{"id":"1","name":"Admin","permissions":["a","b","a"]},
		{"id":"2","name":"Summary","permission_count":12},
		{"id":"3","name":"Objects","permissions":[{"id":"x"},{"id":"y"}],"permissionCount":2}
	]}`))
	require.Len(t, roles, 3)

	assert.Equal(t, []string{"a", "b"}, roles[0].Permissions)
	assert.Nil(t, roles[0].PermissionCount)

	require.NotNil(t, roles[1].PermissionCount)
	assert.Equal(t, 12, roles[1].EffectivePermissionCount())
	assert.Empty(t, roles[1].Permissions)

	assert.Equal(t, []string{"x", "y"}, roles[2].Permissions)
	assert.Equal(t, 2, roles[2].EffectivePermissionCount())
}

func TestSingleRole(t *testing.T) {
	n := New()

	role, err := n.SingleRole([]byte(`{"data":{"id":"1","name":"Admin"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Admin", role.Name)

	role, err = n.SingleRole([]byte(`{"id":"2","name":"Viewer"}`))
	require.NoError(t, err)
	assert.Equal(t, "2", role.ID)

	_, err = n.SingleRole([]byte(`[]`))
	assert.Error(t, err)
}

func TestModules(t *testing.T) {
	modules := Modules([]byte(`{"modules":[{"id":"crm","name":"CRM","permissions":[
		{"id":"crm.read","type":"read","displayName":"View"},
		{"id":"crm.export","type":"export","display_name":"Export"}
	]}]}`))
	require.Len(t, modules, 1)

	m := modules[0]
	assert.Equal(t, []string{"crm.read", "crm.export"}, m.PermissionIDs())
	assert.Equal(t, rbac.PermissionExport, m.Permissions[1].Type)
	assert.Equal(t, "Export", m.Permissions[1].DisplayName)
}

func TestAvailablePermissions(t *testing.T) {
	n := New()
	modules := n.AvailablePermissions([]byte(`{"data":[{"id":"crm","name":"CRM","permissions":[
		{"id":"a","type":"read","assigned":true},
		{"id":"b","type":"edit","is_assigned":false}
	]}]}`))
	require.Len(t, modules, 1)
	assert.Equal(t, []string{"a"}, rbac.AssignedIDs(modules))
}

func TestActivity(t *testing.T) {
	n := New()
	entries := n.Activity([]byte(`{"activity":[{"id":"1","action":"login","occurred_at":"2024-01-02T03:04:05Z","ip":"10.0.0.1"}]}`))
	require.Len(t, entries, 1)
	assert.Equal(t, "login", entries[0].Action)
	assert.Equal(t, "10.0.0.1", entries[0].Extra["ip"])
	assert.False(t, entries[0].OccurredAt.IsZero())
}

func TestUser_UnparseableTimestampsArePassedThrough(t *testing.T) {
	users := Users([]byte(`[{"id":"1","email":"a@b.c","created_at":1700000000,"updated_at":"yesterday"}]`))
	require.Len(t, users, 1)

	u := users[0]
	assert.True(t, u.CreatedAt.IsZero())
	assert.True(t, u.UpdatedAt.IsZero())
	assert.Equal(t, json.Number("1700000000"), u.Extra["created_at"])
	assert.Equal(t, "yesterday", u.Extra["updated_at"])

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","email":"a@b.c","status":"active","created_at":1700000000,"updated_at":"yesterday"}`, string(data))

	var back rbac.User
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "1", back.ID)
	assert.True(t, back.CreatedAt.IsZero())
	assert.Equal(t, "yesterday", back.Extra["updated_at"])
	assert.EqualValues(t, 1700000000, back.Extra["created_at"])
}

func TestActivity_UnparseableTimestampIsPassedThrough(t *testing.T) {
	entries := New().Activity([]byte(`[{"id":"1","action":"login","occurred_at":"last tuesday"}]`))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].OccurredAt.IsZero())
	assert.Equal(t, "last tuesday", entries[0].Extra["occurred_at"])
}
